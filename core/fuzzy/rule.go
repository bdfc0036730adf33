package fuzzy

import (
	"fmt"
)

// Rule fires its consequent adjective with the degree its antecedent is
// satisfied to.
type Rule struct {
	ID         int
	Antecedent Expr
	Consequent Ref

	target *Adjective
}

func (r *Rule) String() string {
	return fmt.Sprintf("%d: if %v then %s is %s", r.ID, r.Antecedent, r.Consequent.Variable, r.Consequent.Adjective)
}

// key identifies rules with the same antecedent and consequent.
func (r *Rule) key() string {
	return r.Antecedent.String() + " => " + r.Consequent.String()
}

func (r *Rule) fire(cy *cycle) {
	d := r.Antecedent.eval(cy)
	r.target.strength = cy.logic.Or.Conorm(r.target.strength, d)
}
