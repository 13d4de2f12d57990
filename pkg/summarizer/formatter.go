package summarizer

import "fmt"

// Formatter renders a Summary as text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a plain function to Formatter.
type FormatFunc func(summary *Summary) string

// Format implements Formatter.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// NewJSONFormatter renders the summary as indented JSON followed by a newline.
func NewJSONFormatter() Formatter {
	return FormatFunc(func(summary *Summary) string {
		data, err := summary.JSON()
		if err != nil {
			return fmt.Sprintf("{\"error\": %q}\n", err.Error())
		}
		return string(data) + "\n"
	})
}

// FormatterFor returns the formatter for a report format name:
// "markdown" (or empty) and "json".
func FormatterFor(name string) (Formatter, error) {
	switch name {
	case "", "markdown", "md":
		return NewMarkdownFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", name)
	}
}
