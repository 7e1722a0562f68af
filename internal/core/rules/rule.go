// Package rules resolves feature URLs to their configured survey rules.
//
// The backing source is a single rules.yaml file shaped as:
//
//	projects:
//	  my-project:
//	    rules:
//	      - feature_url: /survey
//	        ratio: 0.5
//	        delay_before_reanswer: 30
//	        delay_to_answer: 5
//	        is_active: true
//
// The file is re-read whenever it changes on disk, so edits take effect
// without a restart.
package rules

import "fmt"

// Rule is the configured policy governing one feature. Rules are immutable
// configuration data, never mutated by the running service.
type Rule struct {
	// FeatureURL is the configured identifier, matched as a word-delimited
	// substring of the (normalized) feature URL received from clients.
	FeatureURL string `yaml:"feature_url"`

	// Ratio is the probability of admission, in [0, 1].
	Ratio float64 `yaml:"ratio"`

	// DelayBeforeReanswer is the cooldown in days between two displays to the
	// same visitor.
	DelayBeforeReanswer int `yaml:"delay_before_reanswer"`

	// DelayToAnswer is the answer window in minutes after a display.
	DelayToAnswer int `yaml:"delay_to_answer"`

	IsActive bool `yaml:"is_active"`
}

func (r Rule) validate() error {
	if r.FeatureURL == "" {
		return fmt.Errorf("feature_url must not be empty")
	}
	if r.Ratio < 0 || r.Ratio > 1 {
		return fmt.Errorf("rule %q: ratio %v out of range [0, 1]", r.FeatureURL, r.Ratio)
	}
	if r.DelayBeforeReanswer < 0 {
		return fmt.Errorf("rule %q: delay_before_reanswer must be >= 0", r.FeatureURL)
	}
	if r.DelayToAnswer < 0 {
		return fmt.Errorf("rule %q: delay_to_answer must be >= 0", r.FeatureURL)
	}
	return nil
}

// Catalog resolves feature URLs to rules and owning projects. Lookup expects
// an identifier already normalized with NormalizeFeatureURL; the catalog does
// not re-normalize.
type Catalog interface {
	// Lookup returns the matching rule and the owning project name, or
	// ok=false if no configured rule matches.
	Lookup(normalizedFeatureURL string) (rule Rule, projectName string, ok bool)

	// ProjectNames returns the configured project names in file order.
	ProjectNames() []string

	// RulesForProject returns the rules of one project, or ok=false if the
	// project is not configured.
	RulesForProject(name string) (rules []Rule, ok bool)
}
