package mapper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/bkolar18/wedding-scraper/internal/extractor"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bkolar18/wedding-scraper/internal/telemetry"
)

// Mapper runs two passes over a raw bundle. Pass one mines the structured
// hints with deterministic rules; pass two asks the language model to read
// the full text. Deterministic scalars win over model output, list fields
// come from the model wholesale. A failed second pass degrades the record
// instead of failing the scrape.
type Mapper struct {
	llm     extractor.Client
	metrics *telemetry.ScrapeMetrics
	log     *slog.Logger
}

func New(llm extractor.Client, metrics *telemetry.ScrapeMetrics, log *slog.Logger) *Mapper {
	return &Mapper{llm: llm, metrics: metrics, log: log}
}

func (m *Mapper) Map(ctx context.Context, bundle *model.RawScrapeBundle) (*model.WeddingRecord, error) {
	direct := m.directPass(bundle)

	llmRecord, err := m.llm.Extract(ctx, bundle.FullText)
	if err != nil {
		if m.metrics != nil {
			m.metrics.LlmFailureCnt(1)
		}
		m.log.Warn("llm extraction failed, keeping direct fields only",
			slog.String("url", bundle.URL), slog.Any("err", err))
		return direct, nil
	}

	return merge(direct, llmRecord), nil
}

// directPass fills what the markup hints give away without a model call.
func (m *Mapper) directPass(bundle *model.RawScrapeBundle) *model.WeddingRecord {
	record := &model.WeddingRecord{}

	names := bundle.Hints.CoupleNames
	if names == "" {
		names = bundle.Hints.MainHeading
	}
	record.Partner1Name, record.Partner2Name = ParseCoupleNames(names)

	record.WeddingDate = ParseDate(bundle.Hints.WeddingDateText)
	record.RSVPURL = bundle.Hints.RSVPURL

	if len(bundle.Hints.RegistryLinks) > 0 {
		record.RegistryURLs = make(map[string]string, len(bundle.Hints.RegistryLinks))
		for _, link := range bundle.Hints.RegistryLinks {
			name := link.Text
			if name == "" {
				name = "registry"
			}
			if _, exists := record.RegistryURLs[name]; !exists {
				record.RegistryURLs[name] = link.URL
			}
		}
	}

	return record
}

// merge keeps deterministic scalars when present and takes everything the
// model found otherwise. partner1 stays partner1 across passes.
func merge(direct, llm *model.WeddingRecord) *model.WeddingRecord {
	out := *llm

	if direct.Partner1Name != "" {
		out.Partner1Name = direct.Partner1Name
		out.Partner2Name = direct.Partner2Name
	}
	if direct.WeddingDate != "" {
		out.WeddingDate = direct.WeddingDate
	}
	if direct.RSVPURL != "" {
		out.RSVPURL = direct.RSVPURL
	}
	if len(direct.RegistryURLs) > 0 {
		if out.RegistryURLs == nil {
			out.RegistryURLs = make(map[string]string, len(direct.RegistryURLs))
		}
		for name, url := range direct.RegistryURLs {
			if _, exists := out.RegistryURLs[name]; !exists {
				out.RegistryURLs[name] = url
			}
		}
	}

	return &out
}

var coupleSuffixRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)'s\s+wedding.*$`),
	regexp.MustCompile(`(?i)\s+wedding.*$`),
	regexp.MustCompile(`\s+-\s+.*$`),
}

var coupleSeparatorRe = regexp.MustCompile(`(?i)\s+(?:&|and|\+)\s+`)

// ParseCoupleNames splits "Jane Smith & John Doe's Wedding" into the two
// partners. Order follows the source text.
func ParseCoupleNames(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	for _, re := range coupleSuffixRes {
		text = re.ReplaceAllString(text, "")
	}
	parts := coupleSeparatorRe.Split(text, 2)
	if len(parts) != 2 {
		return "", ""
	}
	p1 := strings.TrimSpace(parts[0])
	p2 := strings.TrimSpace(parts[1])
	if p1 == "" || p2 == "" {
		return "", ""
	}
	return p1, p2
}

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	wordDateRe     = regexp.MustCompile(`(?i)([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)
	dayFirstDateRe = regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]+)\.?,?\s+(\d{4})`)
	slashDateRe    = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoDateRe      = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// ParseDate normalizes a free-form date mention to YYYY-MM-DD. Unparseable
// or out-of-range input yields an empty string, never an error.
func ParseDate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return formatDate(year, month, day)
	}
	if m := wordDateRe.FindStringSubmatch(text); m != nil {
		month, ok := monthNumbers[strings.ToLower(m[1])]
		if !ok {
			return ""
		}
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return formatDate(year, month, day)
	}
	if m := dayFirstDateRe.FindStringSubmatch(text); m != nil {
		month, ok := monthNumbers[strings.ToLower(m[2])]
		if !ok {
			return ""
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		return formatDate(year, month, day)
	}
	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return formatDate(year, month, day)
	}
	return ""
}

func formatDate(year, month, day int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// Preview summarizes a record for display before import.
func Preview(record *model.WeddingRecord) *model.Preview {
	return &model.Preview{
		Partner1Name:        record.Partner1Name,
		Partner2Name:        record.Partner2Name,
		WeddingDate:         record.WeddingDate,
		CeremonyVenue:       record.CeremonyVenueName,
		ReceptionVenue:      record.ReceptionVenueName,
		DressCode:           record.DressCode,
		EventsCount:         len(record.Events),
		AccommodationsCount: len(record.Accommodations),
		FAQCount:            len(record.FAQs),
		HasRegistry:         len(record.RegistryURLs) > 0,
	}
}
