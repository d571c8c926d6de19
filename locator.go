package gridwalk

import (
	"fmt"
	"regexp"
	"strings"
)

// Locator strategy names, also accepted by By.
const (
	ByIDStrategy              = "id"
	ByXPathStrategy           = "xpath"
	ByLinkTextStrategy        = "link text"
	ByPartialLinkTextStrategy = "partial link text"
	ByNameStrategy            = "name"
	ByTagNameStrategy         = "tag name"
	ByClassNameStrategy       = "class name"
	ByCSSSelectorStrategy     = "css selector"
)

// InvalidLocatorError reports a locator that cannot be constructed, resolved
// or combined.
type InvalidLocatorError struct {
	Strategy string
	Value    string
	Reason   string
}

func (e *InvalidLocatorError) Error() string {
	return fmt.Sprintf("invalid locator %s=%q: %s", e.Strategy, e.Value, e.Reason)
}

// Locator describes how to find elements on a page. It is an immutable
// value; resolving it to a wire query is deterministic and has no side
// effects.
type Locator struct {
	strategy string
	value    string
}

// tagNamePattern accepts HTML tag names, including hyphenated custom
// elements.
var tagNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

func newLocator(strategy, value string) (Locator, error) {
	if strings.TrimSpace(value) == "" {
		return Locator{}, &InvalidLocatorError{Strategy: strategy, Value: value, Reason: "value must not be blank"}
	}
	return Locator{strategy: strategy, value: value}, nil
}

// ByID locates elements whose id attribute equals id.
func ByID(id string) (Locator, error) {
	return newLocator(ByIDStrategy, id)
}

// ByName locates elements whose name attribute equals name.
func ByName(name string) (Locator, error) {
	return newLocator(ByNameStrategy, name)
}

// ByClassName locates elements carrying the single class name class.
// Matching is whitespace-normalized, so it works no matter how the class
// attribute is formatted. Compound names are not permitted.
func ByClassName(class string) (Locator, error) {
	l, err := newLocator(ByClassNameStrategy, class)
	if err != nil {
		return Locator{}, err
	}
	if strings.ContainsAny(class, " \t\n\r\f") {
		return Locator{}, &InvalidLocatorError{Strategy: ByClassNameStrategy, Value: class, Reason: "compound class names are not permitted"}
	}
	return l, nil
}

// ByTagName locates elements by tag name.
func ByTagName(tag string) (Locator, error) {
	l, err := newLocator(ByTagNameStrategy, tag)
	if err != nil {
		return Locator{}, err
	}
	if !tagNamePattern.MatchString(tag) {
		return Locator{}, &InvalidLocatorError{Strategy: ByTagNameStrategy, Value: tag, Reason: "not a valid tag name"}
	}
	return l, nil
}

// ByXPath locates elements with a raw XPath expression, used verbatim.
func ByXPath(xpath string) (Locator, error) {
	return newLocator(ByXPathStrategy, xpath)
}

// ByCSSSelector locates elements with a raw CSS selector, used verbatim.
func ByCSSSelector(selector string) (Locator, error) {
	return newLocator(ByCSSSelectorStrategy, selector)
}

// ByLinkText locates anchor elements whose whitespace-normalized text equals
// text.
func ByLinkText(text string) (Locator, error) {
	return newLocator(ByLinkTextStrategy, text)
}

// ByPartialLinkText locates anchor elements whose whitespace-normalized text
// contains text.
func ByPartialLinkText(text string) (Locator, error) {
	return newLocator(ByPartialLinkTextStrategy, text)
}

// By constructs a locator from a strategy name and a value. The strategy
// must be one of the *Strategy constants.
func By(strategy, value string) (Locator, error) {
	switch strategy {
	case ByIDStrategy:
		return ByID(value)
	case ByNameStrategy:
		return ByName(value)
	case ByClassNameStrategy:
		return ByClassName(value)
	case ByTagNameStrategy:
		return ByTagName(value)
	case ByXPathStrategy:
		return ByXPath(value)
	case ByCSSSelectorStrategy:
		return ByCSSSelector(value)
	case ByLinkTextStrategy:
		return ByLinkText(value)
	case ByPartialLinkTextStrategy:
		return ByPartialLinkText(value)
	}
	return Locator{}, &InvalidLocatorError{Strategy: strategy, Value: value, Reason: "unknown strategy"}
}

// Strategy returns the locator's strategy name.
func (l Locator) Strategy() string { return l.strategy }

// Value returns the raw value the locator was constructed with.
func (l Locator) Value() string { return l.value }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.strategy, l.value)
}

// queryBased reports whether the locator resolves into the XPath query
// family. Only ByCSSSelector resolves outside it.
func (l Locator) queryBased() bool {
	return l.strategy != ByCSSSelectorStrategy && l.strategy != ""
}

// Resolve translates the locator into the wire query an engine consumes.
// The zero Locator resolves to the zero Query.
func (l Locator) Resolve() Query {
	switch l.strategy {
	case ByIDStrategy:
		return Query{UsingXPath, "//*[@id=" + xpathLiteral(l.value) + "]"}
	case ByNameStrategy:
		return Query{UsingXPath, "//*[@name=" + xpathLiteral(l.value) + "]"}
	case ByClassNameStrategy:
		return Query{UsingXPath, `//*[contains(concat(" ", normalize-space(@class), " "), ` + xpathLiteral(" "+l.value+" ") + ")]"}
	case ByTagNameStrategy:
		return Query{UsingXPath, "//" + l.value}
	case ByXPathStrategy:
		return Query{UsingXPath, l.value}
	case ByCSSSelectorStrategy:
		return Query{UsingCSSSelector, l.value}
	case ByLinkTextStrategy:
		return Query{UsingXPath, "//a[normalize-space(.)=" + xpathLiteral(normalizeSpace(l.value)) + "]"}
	case ByPartialLinkTextStrategy:
		return Query{UsingXPath, "//a[contains(normalize-space(.), " + xpathLiteral(normalizeSpace(l.value)) + ")]"}
	}
	return Query{}
}

// Chain combines parent with children into one locator that matches
// elements inside the parent's matches. All operands must belong to the same
// query family: XPath-family locators chain as descendant steps, CSS
// selectors chain with the descendant combinator.
func Chain(parent Locator, children ...Locator) (Locator, error) {
	if parent.strategy == "" {
		return Locator{}, &InvalidLocatorError{Reason: "cannot chain the zero locator"}
	}
	combined := parent
	for _, child := range children {
		if child.strategy == "" {
			return Locator{}, &InvalidLocatorError{Reason: "cannot chain the zero locator"}
		}
		if child.queryBased() != combined.queryBased() {
			return Locator{}, &InvalidLocatorError{
				Strategy: child.strategy,
				Value:    child.value,
				Reason:   "cannot chain css and xpath locators",
			}
		}
		if combined.queryBased() {
			combined = Locator{
				strategy: ByXPathStrategy,
				value:    "(" + combined.Resolve().Value + ")" + relativeXPath(child.Resolve().Value),
			}
		} else {
			combined = Locator{
				strategy: ByCSSSelectorStrategy,
				value:    combined.value + " " + child.value,
			}
		}
	}
	return combined, nil
}

// relativeXPath rewrites an XPath value as a step below a chained parent.
// Descendant-anchored and absolute expressions keep their axis; a bare step
// becomes a descendant step.
func relativeXPath(v string) string {
	switch {
	case strings.HasPrefix(v, "//"), strings.HasPrefix(v, "/"):
		return v
	case strings.HasPrefix(v, "./"):
		return strings.TrimPrefix(v, ".")
	default:
		return "//" + v
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// xpathLiteral quotes s as an XPath 1.0 string literal. Values containing
// both quote kinds are expressed through concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts))
	for i, part := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}
		if part != "" {
			args = append(args, "'"+part+"'")
		}
	}
	if len(args) == 1 {
		return args[0]
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}
