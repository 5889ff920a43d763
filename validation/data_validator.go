// Package validation provides input and data quality validation for the CIE10 API.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/cie10-api/cie10"
	"github.com/giygas/cie10-api/interfaces"
	"github.com/giygas/cie10-api/logging"
)

const (
	minInputLength = 2
	maxInputLength = 50
	maxInputWords  = 6
	maxCodeLength  = 32
	maxRepetition  = 10
)

// Compiled once at package initialization and reused for all validations
var (
	// Letters, digits, Spanish accents and the punctuation found in labels
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.,'()áéíóúüñÁÉÍÓÚÜÑ]+$`)

	// Codes as they appear in the Variable column: F32.1, No_DX, altas_capacidades
	codeRegex = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

	// Matched with strings.Contains on the lowercased input
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "url(", "@import",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator interface
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput validates description search terms
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("input is not valid UTF-8")
	}

	length := utf8.RuneCountInString(input)
	if length < minInputLength {
		return fmt.Errorf("input too short: minimum %d characters", minInputLength)
	}

	if length > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	// Many short words make the description scan expensive
	if len(strings.Fields(input)) > maxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, commas, parentheses, and Spanish accented characters are allowed")
	}

	if !strings.ContainsFunc(input, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) {
		return fmt.Errorf("input must contain at least one letter or digit")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateCode validates a code taken from a request path
func (v *DataValidatorImpl) ValidateCode(input string) error {
	if input == "" {
		return fmt.Errorf("code cannot be empty")
	}

	if len(input) > maxCodeLength {
		return fmt.Errorf("code too long: maximum %d characters", maxCodeLength)
	}

	if !codeRegex.MatchString(input) {
		return fmt.Errorf("code contains invalid characters. Only letters, numbers, periods and underscores are allowed")
	}

	return nil
}

// ReportDataQuality builds the data quality report of a load and logs what
// needs attention. A nil result gives an empty report.
func (v *DataValidatorImpl) ReportDataQuality(result *cie10.Result) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateVariables:       []string{},
		OverriddenBySupplemental: []string{},
		Collisions:               []cie10.Collision{},
		EmptyDescriptions:        []string{},
	}
	if result == nil {
		return report
	}

	report.RowsRead = result.RowsRead
	report.Entries = len(result.Mapping)
	report.Encoding = result.Encoding
	report.DroppedNoneRows = len(result.DroppedNone)
	report.EmptyCodeRows = result.EmptyCodeRows
	report.DuplicateVariables = append(report.DuplicateVariables, result.DuplicateVariables...)
	report.OverriddenBySupplemental = append(report.OverriddenBySupplemental, result.Overridden...)
	report.Collisions = append(report.Collisions, result.Collisions...)

	for code, description := range result.Mapping {
		if strings.TrimSpace(description) == "" {
			report.EmptyDescriptions = append(report.EmptyDescriptions, code)
		}
	}
	slices.Sort(report.EmptyDescriptions)

	if len(report.Collisions) > 0 {
		logging.Warn("Codes merged by normalization",
			"count", len(report.Collisions),
			"collisions", report.Collisions,
		)
	}

	if len(report.DuplicateVariables) > 0 {
		logging.Warn("Duplicate variables in mapping file, last row kept",
			"count", len(report.DuplicateVariables),
			"variables", report.DuplicateVariables,
		)
	}

	if len(report.EmptyDescriptions) > 0 {
		logging.Warn("Codes with an empty description",
			"count", len(report.EmptyDescriptions),
			"codes", report.EmptyDescriptions,
		)
	}

	if report.EmptyCodeRows > 0 {
		logging.Warn("Rows without a variable skipped", "count", report.EmptyCodeRows)
	}

	return report
}

// hasExcessiveRepetition reports a character repeated more than
// maxRepetition times in a row
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for i, r := range input {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run > maxRepetition {
			return true
		}
		prev = r
	}
	return false
}
