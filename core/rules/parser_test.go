package rules

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockersweep/dockersweep/core/domain"
)

func TestParseRuleHeaders(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantTarget domain.Kind
		wantAction domain.Action
		wantForce  bool
	}{
		{
			name:       "keep container",
			src:        "KEEP CONTAINER IF Container.State.Running;",
			wantTarget: domain.KindContainer,
			wantAction: domain.Keep,
		},
		{
			name:       "delete image",
			src:        "DELETE IMAGE IF Image.Dangling;",
			wantTarget: domain.KindImage,
			wantAction: domain.Delete,
		},
		{
			name:       "force delete",
			src:        "FORCE DELETE CONTAINER IF Container.Name == 'tmp';",
			wantTarget: domain.KindContainer,
			wantAction: domain.Delete,
			wantForce:  true,
		},
		{
			name:       "force keep parses",
			src:        "FORCE KEEP IMAGE IF Image.Dangling;",
			wantTarget: domain.KindImage,
			wantAction: domain.Keep,
			wantForce:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ruleList, err := Parse(tt.src)
			require.NoError(t, err)
			require.Len(t, ruleList, 1)
			assert.Equal(t, tt.wantTarget, ruleList[0].Target)
			assert.Equal(t, tt.wantAction, ruleList[0].Action)
			assert.Equal(t, tt.wantForce, ruleList[0].Force)
		})
	}
}

func TestParseKeepsRuleOrder(t *testing.T) {
	src := `
		KEEP CONTAINER IF Container.State.Running;
		DELETE CONTAINER IF Container.State.FinishedAt.before('1 week ago');
		DELETE IMAGE IF Image.Dangling;
	`
	ruleList, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, ruleList, 3)
	assert.Equal(t, domain.Keep, ruleList[0].Action)
	assert.Equal(t, domain.Delete, ruleList[1].Action)
	assert.Equal(t, domain.KindImage, ruleList[2].Target)
}

func TestParsePrecedence(t *testing.T) {
	ruleList, err := Parse("KEEP CONTAINER IF a or b and not c == 1 + 2 * 3;")
	require.NoError(t, err)

	// or is the weakest binder.
	or, ok := ruleList[0].Condition.(*Logic)
	require.True(t, ok)
	assert.Equal(t, OpOr, or.Op)

	and, ok := or.Right.(*Logic)
	require.True(t, ok)
	assert.Equal(t, OpAnd, and.Op)

	not, ok := and.Right.(*Not)
	require.True(t, ok)

	cmp, ok := not.X.(*Compare)
	require.True(t, ok)
	assert.Equal(t, OpEq, cmp.Op)

	add, ok := cmp.Right.(*Arith)
	require.True(t, ok)
	assert.Equal(t, OpAdd, add.Op)

	mul, ok := add.Right.(*Arith)
	require.True(t, ok)
	assert.Equal(t, OpMul, mul.Op)
}

func TestParseComparisonsDoNotChain(t *testing.T) {
	_, err := Parse("KEEP CONTAINER IF 1 < 2 < 3;")
	assert.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseMethodCalls(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "before on nested path",
			src:  "DELETE CONTAINER IF Container.State.FinishedAt.before('2 weeks ago');",
		},
		{
			name: "after on created",
			src:  "KEEP IMAGE IF Image.Created.after('2025-01-01');",
		},
		{
			name:    "unknown method name",
			src:     "KEEP IMAGE IF Image.Created.within('1 week');",
			wantErr: "method call 'before' or 'after'",
		},
		{
			name:    "call without receiver",
			src:     "KEEP IMAGE IF before('1 week ago');",
			wantErr: "method call 'before' or 'after'",
		},
		{
			name:    "numeric argument rejected",
			src:     "KEEP IMAGE IF Image.Created.before(7);",
			wantErr: "expected string",
		},
		{
			name:    "missing closing paren",
			src:     "KEEP IMAGE IF Image.Created.before('1 week ago';",
			wantErr: "expected ')'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ruleList, err := Parse(tt.src)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			call, ok := ruleList[0].Condition.(*Call)
			require.True(t, ok)
			assert.NotEmpty(t, call.Receiver.Segments)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "missing action",
			src:     "CONTAINER IF Container.Name;",
			wantErr: "expected 'KEEP' or 'DELETE'",
		},
		{
			name:    "missing target",
			src:     "DELETE IF Container.Name;",
			wantErr: "expected 'CONTAINER' or 'IMAGE'",
		},
		{
			name:    "missing if",
			src:     "DELETE CONTAINER Container.Name;",
			wantErr: "expected 'IF'",
		},
		{
			name:    "empty condition",
			src:     "DELETE CONTAINER IF ;",
			wantErr: "expected expression",
		},
		{
			name:    "trailing operator",
			src:     "DELETE CONTAINER IF Container.Size > ;",
			wantErr: "expected expression",
		},
		{
			name:    "dot without segment",
			src:     "DELETE CONTAINER IF Container.;",
			wantErr: "expected identifier",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// A missing semicolon is reported where the next statement begins, which is
// the first point the parser can tell the statement never ended.
func TestParseMissingSemicolonPosition(t *testing.T) {
	src := "KEEP CONTAINER IF Container.State.Running\nDELETE IMAGE IF Image.Dangling;"
	_, err := Parse(src)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Pos.Line)
	assert.Equal(t, "';'", parseErr.Expected)
}

func TestParseIsDeterministic(t *testing.T) {
	src := `
		FORCE DELETE CONTAINER IF not Container.State.Running and
			Container.State.FinishedAt.before('3 days, 12 hours ago');
		KEEP IMAGE IF Image.Repository == 'nginx' or Image.Tag != 'latest';
	`
	first, err := Parse(src)
	require.NoError(t, err)
	second, err := Parse(src)
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestParseRendersRuleText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "collapses whitespace",
			src:  "DELETE   CONTAINER\n\tIF  Container.State.Running  ==  0;",
			want: "DELETE CONTAINER IF Container.State.Running == 0;",
		},
		{
			name: "method call hugs receiver",
			src:  "DELETE IMAGE IF Image.Created.before( '1 week ago' );",
			want: "DELETE IMAGE IF Image.Created.before('1 week ago');",
		},
		{
			name: "grouping parens stand alone",
			src:  "KEEP CONTAINER IF (Container.Size + 1) * 2 > 10;",
			want: "KEEP CONTAINER IF (Container.Size + 1) * 2 > 10;",
		},
		{
			name: "double quotes normalize to single",
			src:  `KEEP CONTAINER IF Container.Name == "db";`,
			want: "KEEP CONTAINER IF Container.Name == 'db';",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ruleList, err := Parse(tt.src)
			require.NoError(t, err)
			require.Len(t, ruleList, 1)
			assert.Equal(t, tt.want, ruleList[0].Text)
		})
	}
}
