package strategy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/ski-status/internal/resort"
	"github.com/pfrederiksen/ski-status/internal/textnorm"
)

// snowRule matches a snow depth label followed by a centimeter value
type snowRule struct {
	label   string
	pattern *regexp.Regexp
}

func newSnowRule(label string) snowRule {
	return snowRule{
		label:   label,
		pattern: regexp.MustCompile(regexp.QuoteMeta(label) + `[:：]*([0-9]{1,3})(?i:cm)`),
	}
}

// Order is a trust ranking: an explicit depth label beats summit, summit beats base.
var snowRules = []snowRule{
	newSnowRule("積雪"),
	newSnowRule("積雪深"),
	newSnowRule("山頂"),
	newSnowRule("山麓"),
	newSnowRule("積雪量"),
}

// statusRule maps any of its phrases to a status
type statusRule struct {
	status  resort.Status
	phrases []string
}

// Most specific and most positive claim first; pages often carry old news text.
var statusRules = []statusRule{
	{resort.StatusFullyOpen, []string{"全面滑走可"}},
	{resort.StatusPartiallyOpen, []string{"一部滑走可"}},
	{resort.StatusOperating, []string{"営業中"}},
	{resort.StatusPreparing, []string{"準備中"}},
	{resort.StatusClosed, []string{"クローズ", "休業", "終了", "休止"}},
}

// Open-course patterns; group 1 is the count and must not be part of a longer number.
var courseRules = []*regexp.Regexp{
	regexp.MustCompile(`([0-9]{1,2})(?:コース|本)(?:滑走可|営業|オープン|(?i:open))`),
	regexp.MustCompile(`滑走可能コース数?[:：]*([0-9]{1,2})`),
}

var (
	firstNumber = regexp.MustCompile(`[0-9]+`)
	cellDepth   = regexp.MustCompile(`([0-9]{1,3})(?i:cm)`)
	bareNumber  = regexp.MustCompile(`^[0-9]{1,3}$`)
)

// SnowDepth returns the first plausible snow depth in text, trying each label
// rule in order. Values outside [0, 600] cm are skipped. Returns nil when no
// rule yields a plausible value.
func SnowDepth(text string) *int {
	text = textnorm.FoldDigits(text)
	for _, rule := range snowRules {
		for _, m := range rule.pattern.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || !resort.PlausibleDepth(n) {
				continue
			}
			return &n
		}
	}
	return nil
}

// Classify returns the status of the first rule with a phrase contained in
// text, or StatusUnknown.
func Classify(text string) resort.Status {
	text = textnorm.FoldDigits(text)
	for _, rule := range statusRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(text, phrase) {
				return rule.status
			}
		}
	}
	return resort.StatusUnknown
}

// OpenCourses infers the open-course count for a page whose status is already
// known. FullyOpen yields total (nil when total is unknown), Closed and
// Preparing yield 0, other statuses search text for an "N courses open"
// phrase bounded by total.
func OpenCourses(text string, status resort.Status, total int) *int {
	switch status {
	case resort.StatusFullyOpen:
		if total > 0 {
			return resort.IntPtr(total)
		}
		return nil
	case resort.StatusClosed, resort.StatusPreparing:
		return resort.IntPtr(0)
	case resort.StatusFetchError:
		return nil
	}
	return courseCount(text, total)
}

// courseCount searches text for an open-course phrase whose count lies in
// [0, total]; any count is accepted when total is unknown.
func courseCount(text string, total int) *int {
	text = textnorm.FoldDigits(text)
	for _, rule := range courseRules {
		for _, loc := range rule.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2], loc[3]
			if (start > 0 && isDigit(text[start-1])) || (end < len(text) && isDigit(text[end])) {
				continue
			}
			n, err := strconv.Atoi(text[start:end])
			if err != nil || n < 0 || (total > 0 && n > total) {
				continue
			}
			return &n
		}
	}
	return nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// parseDepth reads a snow depth from a value cell. The first plausible
// "<n>cm" wins; a bare number is accepted only when it is the whole cell, so
// dates and update times are never read as depths.
func parseDepth(value string) *int {
	value = textnorm.Collapse(value)
	for _, loc := range cellDepth.FindAllStringSubmatchIndex(value, -1) {
		start, end := loc[2], loc[3]
		if start > 0 && isDigit(value[start-1]) {
			continue
		}
		n, err := strconv.Atoi(value[start:end])
		if err != nil || !resort.PlausibleDepth(n) {
			continue
		}
		return &n
	}

	if !bareNumber.MatchString(value) {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || !resort.PlausibleDepth(n) {
		return nil
	}
	return &n
}

// parseCount reads the first number of a value cell as a course count.
func parseCount(value string) *int {
	n, ok := leadingNumber(value)
	if !ok {
		return nil
	}
	return &n
}

func leadingNumber(value string) (int, bool) {
	m := firstNumber.FindString(textnorm.FoldDigits(value))
	if m == "" || len(m) > 3 {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
