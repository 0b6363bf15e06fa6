package lcsd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Section headings on LCSD facility pages.
const (
	keywordDescription = "簡介"
	keywordFacilities  = "設施"
	keywordJogging     = "緩步跑開放時間"
	keywordOpening     = "開放時間"
	keywordMaintenance = "定期保養日"
)

// MaintenanceDay is one recurring weekly closure. Weekday is ISO (1=Monday,
// 7=Sunday); Start/End are 24h "HH:MM" strings, empty when the page gives
// no times.
type MaintenanceDay struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// Facility is one parsed athletic-field record.
type Facility struct {
	DID             string           `json:"did"`
	LCSDNumber      string           `json:"lcsd_number"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Facilities      []string         `json:"facilities"`
	Has400mLoop     bool             `json:"400m_loop"`
	OpeningHours    string           `json:"opening_hours,omitempty"`
	MaintenanceDays []MaintenanceDay `json:"maintenance_days"`
}

var (
	weekdayMap = map[rune]int{'一': 1, '二': 2, '三': 3, '四': 4, '五': 5, '六': 6, '日': 7, '天': 7}

	loop400mRe    = regexp.MustCompile(`(?i)(400\s*米|400\s*m)`)
	weekdayRe     = regexp.MustCompile(`星期([一二三四五六日天])`)
	clockTimeRe   = regexp.MustCompile(`(上午|下午)?\s*(\d{1,2})時`)
	clauseSplitRe = regexp.MustCompile(`[、;；。]`)
)

// ParseFacilityPage extracts facility records from one detail page. Pages
// carry one <a name="..."> anchor per facility; everything until the next
// anchor belongs to that record.
func ParseFacilityPage(page string, did string) ([]Facility, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	blocks := splitAnchors(root)
	records := make([]Facility, 0, len(blocks))
	for _, block := range blocks {
		rec := parseBlock(block)
		rec.DID = did
		records = append(records, rec)
	}
	return records, nil
}

type anchorBlock struct {
	name  string
	texts []string
}

// splitAnchors flattens the DOM into per-anchor text runs.
func splitAnchors(root *html.Node) []anchorBlock {
	var blocks []anchorBlock
	var current *anchorBlock

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "name" && attr.Val != "" {
						if current != nil {
							blocks = append(blocks, *current)
						}
						current = &anchorBlock{name: attr.Val}
					}
				}
			}
		}
		if n.Type == html.TextNode && current != nil {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				current.texts = append(current.texts, text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

func parseBlock(block anchorBlock) Facility {
	rec := Facility{
		LCSDNumber:      block.name,
		Facilities:      []string{},
		MaintenanceDays: []MaintenanceDay{},
	}

	sections := map[string][]string{}
	section := ""
	for i, text := range block.texts {
		if i == 0 {
			rec.Name = text
			continue
		}
		if key, ok := sectionKeyword(text); ok {
			section = key
			continue
		}
		if section != "" {
			sections[section] = append(sections[section], text)
		}
	}

	rec.Description = strings.Join(sections[keywordDescription], " ")
	rec.OpeningHours = strings.Join(sections[keywordOpening], " ")
	rec.Facilities = splitFacilityList(sections[keywordFacilities])
	rec.Has400mLoop = loop400mRe.MatchString(strings.Join(rec.Facilities, " "))
	rec.MaintenanceDays = parseMaintenance(sections[keywordMaintenance])
	return rec
}

// sectionKeyword matches a heading line against the known section names.
// The jogging heading must be checked before the generic opening one since
// it ends with the same suffix.
func sectionKeyword(text string) (string, bool) {
	trimmed := strings.TrimSpace(strings.Trim(text, ":："))
	switch {
	case trimmed == keywordDescription:
		return keywordDescription, true
	case trimmed == keywordFacilities:
		return keywordFacilities, true
	case trimmed == keywordJogging:
		return keywordJogging, true
	case trimmed == keywordOpening:
		return keywordOpening, true
	case trimmed == keywordMaintenance:
		return keywordMaintenance, true
	}
	return "", false
}

func splitFacilityList(lines []string) []string {
	items := []string{}
	for _, line := range lines {
		for _, part := range strings.FieldsFunc(line, func(r rune) bool {
			return r == '、' || r == ';' || r == '；' || r == '\n'
		}) {
			part = strings.TrimSpace(part)
			if part != "" {
				items = append(items, part)
			}
		}
	}
	return items
}

// parseMaintenance turns clauses like 逢星期一上午8時至下午5時 into
// structured weekly closures.
func parseMaintenance(lines []string) []MaintenanceDay {
	out := []MaintenanceDay{}
	for _, line := range lines {
		for _, clause := range clauseSplitRe.Split(line, -1) {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}

			wd := weekdayRe.FindStringSubmatch(clause)
			if wd == nil {
				continue
			}
			day := MaintenanceDay{Weekday: weekdayMap[[]rune(wd[1])[0]]}

			times := clockTimeRe.FindAllStringSubmatch(clause, 2)
			if len(times) >= 1 {
				day.Start = toClock(times[0][1], times[0][2])
			}
			if len(times) >= 2 {
				day.End = toClock(times[1][1], times[1][2])
			}
			out = append(out, day)
		}
	}
	return out
}

// toClock converts 上午8 / 下午5 style tokens into "08:00" / "17:00".
func toClock(period, hourStr string) string {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return ""
	}
	if period == "下午" && hour != 12 {
		hour += 12
	}
	if period == "上午" && hour == 12 {
		hour = 0
	}
	if hour < 0 || hour > 23 {
		return ""
	}
	return fmt.Sprintf("%02d:00", hour)
}
