package lcsd

import "testing"

const samplePage = `
<html><body>
<a name="1001"></a>
<h2>何文田運動場</h2>
<p>簡介</p>
<p>位於何文田的主要田徑場地。</p>
<p>設施</p>
<p>400米全天候跑道、天然草地足球場；更衣室</p>
<p>開放時間</p>
<p>每日上午6時30分至晚上10時30分</p>
<p>定期保養日</p>
<p>逢星期一上午8時至下午5時、逢星期四上午10時</p>
<a name="1002"></a>
<h2>九龍仔公園運動場</h2>
<p>設施</p>
<p>草地球場、兒童遊樂場</p>
</body></html>`

func TestParseFacilityPageSplitsAnchors(t *testing.T) {
	records, err := ParseFacilityPage(samplePage, "42")
	if err != nil {
		t.Fatalf("ParseFacilityPage returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 facilities, got %d", len(records))
	}

	first := records[0]
	if first.DID != "42" || first.LCSDNumber != "1001" {
		t.Fatalf("unexpected identifiers: %+v", first)
	}
	if first.Name != "何文田運動場" {
		t.Fatalf("expected facility name, got %q", first.Name)
	}
	if first.Description == "" {
		t.Fatal("expected description to be captured")
	}

	second := records[1]
	if second.LCSDNumber != "1002" || second.Name != "九龍仔公園運動場" {
		t.Fatalf("unexpected second record: %+v", second)
	}
}

func TestParseFacilityPageDetects400mLoop(t *testing.T) {
	records, err := ParseFacilityPage(samplePage, "42")
	if err != nil {
		t.Fatalf("ParseFacilityPage returned error: %v", err)
	}

	if !records[0].Has400mLoop {
		t.Fatalf("expected 400m loop on first facility, facilities=%v", records[0].Facilities)
	}
	if records[1].Has400mLoop {
		t.Fatalf("did not expect 400m loop on second facility, facilities=%v", records[1].Facilities)
	}
	if len(records[0].Facilities) != 3 {
		t.Fatalf("expected 3 facility items, got %v", records[0].Facilities)
	}
}

func TestParseFacilityPageMaintenanceDays(t *testing.T) {
	records, err := ParseFacilityPage(samplePage, "42")
	if err != nil {
		t.Fatalf("ParseFacilityPage returned error: %v", err)
	}

	days := records[0].MaintenanceDays
	if len(days) != 2 {
		t.Fatalf("expected 2 maintenance closures, got %+v", days)
	}
	if days[0].Weekday != 1 || days[0].Start != "08:00" || days[0].End != "17:00" {
		t.Fatalf("unexpected Monday closure: %+v", days[0])
	}
	if days[1].Weekday != 4 || days[1].Start != "10:00" || days[1].End != "" {
		t.Fatalf("unexpected Thursday closure: %+v", days[1])
	}
}

func TestToClock(t *testing.T) {
	cases := []struct {
		period string
		hour   string
		want   string
	}{
		{"上午", "8", "08:00"},
		{"下午", "5", "17:00"},
		{"下午", "12", "12:00"},
		{"上午", "12", "00:00"},
		{"", "9", "09:00"},
		{"", "25", ""},
	}
	for _, tc := range cases {
		if got := toClock(tc.period, tc.hour); got != tc.want {
			t.Fatalf("toClock(%q, %q) = %q, want %q", tc.period, tc.hour, got, tc.want)
		}
	}
}

func TestWeekdayMapping(t *testing.T) {
	inputs := map[string]int{
		"逢星期一休息": 1,
		"逢星期日休息": 7,
		"逢星期天休息": 7,
	}
	for clause, want := range inputs {
		days := parseMaintenance([]string{clause})
		if len(days) != 1 || days[0].Weekday != want {
			t.Fatalf("parseMaintenance(%q) = %+v, want weekday %d", clause, days, want)
		}
	}
}
