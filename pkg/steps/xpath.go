package steps

import (
	"fmt"
	"strings"
)

// xpathLiteral quotes s for use in an XPath 1.0 expression
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// hasClass matches elements whose class list contains class
func hasClass(class string) string {
	return fmt.Sprintf(`contains(concat(' ', normalize-space(@class), ' '), ' %s ')`, class)
}

// containsText matches elements whose string value contains text, like jQuery :contains
func containsText(text string) string {
	return fmt.Sprintf(`contains(string(.), %s)`, xpathLiteral(text))
}

func fieldXPath(locator string) string {
	l := xpathLiteral(locator)
	fields := `(self::input or self::textarea or self::select)`
	return fmt.Sprintf(
		`//*[%[1]s and (@id=%[2]s or @name=%[2]s or @placeholder=%[2]s or @id=//label[normalize-space(string(.))=%[2]s]/@for)] | //label[normalize-space(string(.))=%[2]s]//*[%[1]s]`,
		fields, l,
	)
}

func buttonXPath(locator string) string {
	l := xpathLiteral(locator)
	return fmt.Sprintf(
		`//*[(self::button or (self::input and (@type='submit' or @type='image' or @type='button' or @type='reset'))) and (@id=%[1]s or @name=%[1]s or @value=%[1]s or @title=%[1]s or @alt=%[1]s or normalize-space(string(.))=%[1]s)]`,
		l,
	)
}

func linkXPath(locator string) string {
	l := xpathLiteral(locator)
	return fmt.Sprintf(
		`//a[@href and (@id=%[1]s or @title=%[1]s or normalize-space(string(.))=%[1]s or .//img[@alt=%[1]s])]`,
		l,
	)
}
