package catalog

import "strings"

// PlainDocText strips comment markers from a raw doc comment: `///` line
// comments and `/** ... */` blocks with their leading `*`. Leading and
// trailing blank lines are dropped. Text without markers is returned trimmed.
func PlainDocText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	var lines []string
	inBlock := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "///"):
			line = strings.TrimPrefix(line, "///")
		case strings.HasPrefix(line, "/**"):
			inBlock = true
			line = strings.TrimPrefix(line, "/**")
		}
		if inBlock {
			if strings.HasSuffix(line, "*/") {
				line = strings.TrimSuffix(line, "*/")
				inBlock = false
			}
			line = strings.TrimPrefix(line, "*")
		}
		line = strings.TrimPrefix(line, " ")
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// FieldDocumentation returns the documentation of the named field of cls,
// searching superclasses when cls does not declare it. The bool is false
// when no documented field is found.
func (q *QueryService) FieldDocumentation(cls *Class, name string) (string, bool) {
	seen := make(map[*Class]bool)
	for cur := cls; cur != nil && !seen[cur]; {
		seen[cur] = true
		if f, ok := cur.Field(name); ok {
			doc := PlainDocText(f.Doc)
			return doc, doc != ""
		}
		next, ok := q.Superclass(cur)
		if !ok {
			break
		}
		cur = next
	}
	return "", false
}

// ParameterDocumentation returns the documentation of the field a
// constructor parameter initializes. Only field formal parameters
// (`this.name`) have documentation.
func (q *QueryService) ParameterDocumentation(ctor *Constructor, param *Parameter) (string, bool) {
	if param == nil || !param.Field || ctor == nil || ctor.Class == nil {
		return "", false
	}
	return q.FieldDocumentation(ctor.Class, param.Name)
}

// ClassDocumentation returns the plain documentation of cls.
func ClassDocumentation(cls *Class) string {
	return PlainDocText(cls.Doc)
}
