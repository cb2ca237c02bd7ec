package catalog

// Placeholder scanning and rebinding. Template text uses :name markers;
// at execute time they are rewritten to the driver's native positional
// binding. Single-quoted literals and ::type casts are left untouched.

// placeholders returns the placeholder names in first-appearance order,
// without duplicates.
func placeholders(text string) []string {
	names := []string{}
	seen := map[string]bool{}
	walkPlaceholders(text, func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	})
	return names
}

// walkPlaceholders invokes fn for every placeholder occurrence in order.
func walkPlaceholders(text string, fn func(name string)) {
	inString := false
	for i := 0; i < len(text); i++ {
		c := text[i]

		if c == '\'' {
			inString = !inString
			continue
		}
		if inString || c != ':' {
			continue
		}
		// ::cast — skip both colons.
		if i+1 < len(text) && text[i+1] == ':' {
			i++
			continue
		}
		if i > 0 && text[i-1] == ':' {
			continue
		}

		start := i + 1
		end := start
		for end < len(text) && isIdentChar(text[end]) {
			end++
		}
		if end == start || !isIdentStart(text[start]) {
			continue
		}
		fn(text[start:end])
		i = end - 1
	}
}

// rebind rewrites the template text for the given placeholder function and
// returns the rewritten SQL plus the parameter names in argument-position
// order. positional placeholders ("$n") reuse one argument per unique
// name; anonymous placeholders ("?") repeat the argument per occurrence.
func rebind(text string, placeholder func(pos int) string) (string, []string) {
	numbered := placeholder(1) != placeholder(2)

	argNames := []string{}
	position := map[string]int{} // 1-based, numbered drivers only

	out := make([]byte, 0, len(text))
	last := 0
	inString := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\'' {
			inString = !inString
			continue
		}
		if inString || c != ':' {
			continue
		}
		if i+1 < len(text) && text[i+1] == ':' {
			i++
			continue
		}
		if i > 0 && text[i-1] == ':' {
			continue
		}

		start := i + 1
		end := start
		for end < len(text) && isIdentChar(text[end]) {
			end++
		}
		if end == start || !isIdentStart(text[start]) {
			continue
		}
		name := text[start:end]

		out = append(out, text[last:i]...)
		if numbered {
			pos, ok := position[name]
			if !ok {
				pos = len(argNames) + 1
				position[name] = pos
				argNames = append(argNames, name)
			}
			out = append(out, placeholder(pos)...)
		} else {
			argNames = append(argNames, name)
			out = append(out, placeholder(len(argNames))...)
		}
		last = end
		i = end - 1
	}
	out = append(out, text[last:]...)
	return string(out), argNames
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func validIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}
