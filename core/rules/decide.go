package rules

import (
	"github.com/dockersweep/dockersweep/core/domain"
)

// Decide applies the ordered rule list to one resource. The first rule whose
// target matches the resource's kind and whose condition is true wins; later
// rules are not evaluated. When no rule matches, the resource is kept.
//
// An evaluation error is fatal: it is returned wrapped with the rule's
// source position and the resource identity, never treated as "no match",
// so keep/delete outcomes cannot silently depend on rule-file bugs.
func Decide(ruleList []Rule, resource *domain.ResourceValue, env Env) (domain.Decision, error) {
	for i := range ruleList {
		rule := &ruleList[i]
		if rule.Target != resource.Kind() {
			continue
		}
		match, err := EvalCondition(rule.Condition, resource, env)
		if err != nil {
			return domain.Decision{}, &RuleError{
				RulePos:  rule.At,
				RuleText: rule.Text,
				Resource: resource.String(),
				Err:      err,
			}
		}
		if !match {
			continue
		}
		return domain.Decision{
			Resource: resource,
			Action:   rule.Action,
			// FORCE KEEP parses but is inert; force only modifies deletes.
			Force: rule.Force && rule.Action == domain.Delete,
		}, nil
	}
	return domain.Decision{Resource: resource, Action: domain.Keep}, nil
}
