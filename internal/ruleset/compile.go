package ruleset

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// document mirrors the serialized rule-set document.
type document struct {
	Description   string      `yaml:"description"`
	Unmatched     string      `yaml:"unmatched"`
	GlobalReplace replaceList `yaml:"global_replace"`
	Input         *patternDoc `yaml:"input"`
	Output        outputDoc   `yaml:"output"`
	Rules         []ruleDoc   `yaml:"rules"`
	Header        string      `yaml:"header"`
	Footer        string      `yaml:"footer"`
}

type outputDoc struct {
	Format string `yaml:"format"`
}

type patternDoc struct {
	Regex string `yaml:"regex"`
	Flags string `yaml:"flags"`
}

type ruleDoc struct {
	Type        string      `yaml:"type"`
	Description string      `yaml:"description"`
	Enabled     *bool       `yaml:"enabled"`
	When        *patternDoc `yaml:"when"`
	Replace     string      `yaml:"replace"`
	Scope       string      `yaml:"scope"`
}

// replaceList preserves the declaration order of the global_replace
// mapping. Decoding into a Go map would lose it, and order is
// significant: pairs apply to the line sequentially, each over the
// result of the previous one.
type replaceList []ReplacePair

// UnmarshalYAML decodes a YAML mapping into ordered pairs.
func (l *replaceList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("global_replace must be a mapping")
	}

	pairs := make([]ReplacePair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var pair ReplacePair
		if err := node.Content[i].Decode(&pair.Find); err != nil {
			return fmt.Errorf("global_replace key: %w", err)
		}
		if err := node.Content[i+1].Decode(&pair.Replace); err != nil {
			return fmt.Errorf("global_replace[%q]: %w", pair.Find, err)
		}
		pairs = append(pairs, pair)
	}

	*l = pairs
	return nil
}

// Load validates and compiles a serialized rule-set document.
//
// All patterns are compiled here, once; matching never compiles. Any
// returned error is a *Error.
func Load(data []byte) (*RuleSet, error) {
	if strings.TrimSpace(string(data)) == "" {
		// An empty document is a valid rule set: everything defaults.
		return (&document{}).compile()
	}

	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Code: ErrCodeDecode, Message: "decode document", Err: err}
	}

	return doc.compile()
}

// LoadFile reads and loads the rule-set document at path.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: fmt.Sprintf("read %s", path), Err: err}
	}
	return Load(data)
}

func (d *document) compile() (*RuleSet, error) {
	rs := &RuleSet{
		Description:   d.Description,
		Unmatched:     DispositionPass,
		GlobalReplace: d.GlobalReplace,
		OutputFormat:  d.Output.Format,
		Header:        d.Header,
		Footer:        d.Footer,
	}

	if d.Unmatched != "" {
		disp := Disposition(d.Unmatched)
		if !ValidDispositions[disp] {
			return nil, &Error{
				Code:    ErrCodeBadValue,
				Field:   "unmatched",
				Message: fmt.Sprintf("invalid disposition %q: must be one of pass, skip", d.Unmatched),
			}
		}
		rs.Unmatched = disp
	}

	if d.Input != nil {
		p, err := compilePattern(*d.Input, "input")
		if err != nil {
			return nil, err
		}
		rs.Input = p
	}

	rs.Rules = make([]Rule, 0, len(d.Rules))
	for i, rd := range d.Rules {
		r, err := compileRule(rd, i)
		if err != nil {
			return nil, err
		}
		rs.Rules = append(rs.Rules, r)
	}

	return rs, nil
}

func compileRule(rd ruleDoc, index int) (Rule, error) {
	field := fmt.Sprintf("rules[%d]", index)

	kind := Kind(rd.Type)
	if !ValidKinds[kind] {
		return Rule{}, &Error{
			Code:    ErrCodeBadValue,
			Field:   field + ".type",
			Message: fmt.Sprintf("invalid rule type %q: must be one of skip, pass, rewrite", rd.Type),
		}
	}

	if rd.When == nil {
		return Rule{}, &Error{Code: ErrCodeBadValue, Field: field + ".when", Message: "missing when pattern"}
	}
	when, err := compilePattern(*rd.When, field+".when")
	if err != nil {
		return Rule{}, err
	}

	r := Rule{
		Kind:        kind,
		Description: rd.Description,
		Enabled:     true,
		When:        when,
	}
	if rd.Enabled != nil {
		r.Enabled = *rd.Enabled
	}

	if kind == KindRewrite {
		if rd.Replace == "" {
			return Rule{}, &Error{
				Code:    ErrCodeBadValue,
				Field:   field + ".replace",
				Message: "rewrite rules require a replace template",
			}
		}
		r.Replace = rd.Replace

		r.Scope = ScopeMessage
		if rd.Scope != "" {
			scope := Scope(rd.Scope)
			if !ValidScopes[scope] {
				return Rule{}, &Error{
					Code:    ErrCodeBadValue,
					Field:   field + ".scope",
					Message: fmt.Sprintf("invalid scope %q: must be one of message, line", rd.Scope),
				}
			}
			r.Scope = scope
		}
	}

	return r, nil
}

func compilePattern(pd patternDoc, field string) (*Pattern, error) {
	if pd.Regex == "" {
		return nil, &Error{Code: ErrCodeBadValue, Field: field + ".regex", Message: "missing regex"}
	}

	prefix, err := flagPrefix(pd.Flags)
	if err != nil {
		return nil, &Error{Code: ErrCodeBadFlags, Field: field + ".flags", Err: err}
	}

	re, err := regexp.Compile(prefix + pd.Regex)
	if err != nil {
		return nil, &Error{Code: ErrCodeBadPattern, Field: field + ".regex", Err: err}
	}

	return &Pattern{Source: pd.Regex, Flags: pd.Flags, re: re}, nil
}

// flagPrefix translates flag letters into an inline flag group, e.g.
// "is" becomes "(?is)". Only the declared flags are applied.
func flagPrefix(flags string) (string, error) {
	if flags == "" {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("(?")

	seen := make(map[rune]bool, 3)
	for _, ch := range flags {
		switch ch {
		case 'i', 'm', 's':
			if !seen[ch] {
				seen[ch] = true
				b.WriteRune(ch)
			}
		default:
			return "", fmt.Errorf("invalid flag %q: flags are a subset of \"ims\"", string(ch))
		}
	}

	b.WriteString(")")
	return b.String(), nil
}
