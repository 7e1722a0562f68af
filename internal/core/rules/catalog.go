package rules

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// compiledRule pairs a Rule with its match pattern, precompiled at load time.
type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

// projectRules keeps one project's rules in file order. Slices rather than a
// map because configuration order is authoritative when several rules match.
type projectRules struct {
	name  string
	rules []compiledRule
}

// ruleSet is one immutable parse of the rules file.
type ruleSet struct {
	projects []projectRules
}

// FileCatalog is a Catalog backed by a YAML file. Reads are always fresh: the
// file is re-parsed when its mtime or size changes, and a parse or validation
// failure keeps the previous good rule set in service.
type FileCatalog struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	size    int64
	current *ruleSet
}

// NewFileCatalog eagerly loads the rules file. Unlike later reloads, an
// invalid file here is fatal: starting with no catalog at all would turn
// every trigger call into a 404.
func NewFileCatalog(path string) (*FileCatalog, error) {
	c := &FileCatalog{path: path}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("rules file: %w", err)
	}
	set, err := loadRuleSet(path)
	if err != nil {
		return nil, err
	}
	c.modTime = info.ModTime()
	c.size = info.Size()
	c.current = set
	return c, nil
}

func (c *FileCatalog) Lookup(normalizedFeatureURL string) (Rule, string, bool) {
	set := c.snapshot()
	for _, p := range set.projects {
		for _, r := range p.rules {
			if r.pattern.MatchString(normalizedFeatureURL) {
				return r.Rule, p.name, true
			}
		}
	}
	return Rule{}, "", false
}

func (c *FileCatalog) ProjectNames() []string {
	set := c.snapshot()
	names := make([]string, len(set.projects))
	for i, p := range set.projects {
		names[i] = p.name
	}
	return names
}

func (c *FileCatalog) RulesForProject(name string) ([]Rule, bool) {
	set := c.snapshot()
	for _, p := range set.projects {
		if p.name == name {
			out := make([]Rule, len(p.rules))
			for i, r := range p.rules {
				out[i] = r.Rule
			}
			return out, true
		}
	}
	return nil, false
}

// snapshot returns the current rule set, reloading first if the file changed.
func (c *FileCatalog) snapshot() *ruleSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(c.path)
	if err != nil {
		slog.Warn("Rules file unreadable, serving previous rule set", "path", c.path, "error", err)
		return c.current
	}
	if info.ModTime().Equal(c.modTime) && info.Size() == c.size {
		return c.current
	}

	set, err := loadRuleSet(c.path)
	if err != nil {
		slog.Warn("Rules file rejected, serving previous rule set", "path", c.path, "error", err)
		// Remember the bad version so the hot path doesn't re-parse it on
		// every request until the file changes again.
		c.modTime = info.ModTime()
		c.size = info.Size()
		return c.current
	}

	slog.Info("Rules file reloaded", "path", c.path, "projects", len(set.projects))
	c.modTime = info.ModTime()
	c.size = info.Size()
	c.current = set
	return c.current
}

// loadRuleSet parses and validates the rules file. The projects mapping is
// decoded through yaml.Node to preserve file order, since the first matching
// rule in configuration order wins.
func loadRuleSet(path string) (*ruleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var doc struct {
		Projects yaml.Node `yaml:"projects"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if doc.Projects.Kind == 0 {
		return nil, fmt.Errorf("rules file: missing projects section")
	}
	if doc.Projects.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rules file: projects must be a mapping")
	}

	set := &ruleSet{}
	for i := 0; i+1 < len(doc.Projects.Content); i += 2 {
		keyNode, valNode := doc.Projects.Content[i], doc.Projects.Content[i+1]

		var body struct {
			Rules []Rule `yaml:"rules"`
		}
		if err := valNode.Decode(&body); err != nil {
			return nil, fmt.Errorf("project %q: %w", keyNode.Value, err)
		}

		p := projectRules{name: keyNode.Value}
		for _, r := range body.Rules {
			if err := r.validate(); err != nil {
				return nil, fmt.Errorf("project %q: %w", keyNode.Value, err)
			}
			p.rules = append(p.rules, compiledRule{Rule: r, pattern: matchPattern(r.FeatureURL)})
		}
		set.projects = append(set.projects, p)
	}

	warnAmbiguousRules(set)
	return set, nil
}

// matchPattern builds the word-boundary match for a configured feature URL.
// The leading ^ alternative covers patterns starting with a non-word rune
// such as "/", where \b alone would never anchor at the start of the input.
func matchPattern(featureURL string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|\b)` + regexp.QuoteMeta(featureURL) + `(?:\b|$)`)
}

// warnAmbiguousRules flags configured rules that can both match one incoming
// identifier. Runtime behavior stays first-match-wins; the warning makes the
// silent pick visible at load time.
func warnAmbiguousRules(set *ruleSet) {
	type entry struct {
		project string
		rule    compiledRule
	}
	var all []entry
	for _, p := range set.projects {
		for _, r := range p.rules {
			all = append(all, entry{project: p.name, rule: r})
		}
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if a.rule.pattern.MatchString(b.rule.FeatureURL) || b.rule.pattern.MatchString(a.rule.FeatureURL) {
				slog.Warn("Ambiguous rule configuration: two rules can match the same feature URL, first in file order wins",
					"first_project", a.project, "first_feature", a.rule.FeatureURL,
					"second_project", b.project, "second_feature", b.rule.FeatureURL)
			}
		}
	}
}
