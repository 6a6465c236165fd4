// Package report writes the summary of a tracking run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: text table for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown for sharing and documentation
//
// EmailBody turns a summary into the subject, message and table of the
// notification email.
package report
