package mapper

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bkolar18/wedding-scraper/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	record *model.WeddingRecord
	err    error
}

func (s *stubLLM) Extract(_ context.Context, _ string) (*model.WeddingRecord, error) {
	return s.record, s.err
}

func TestParseCoupleNames(t *testing.T) {
	tests := []struct {
		in    string
		want1 string
		want2 string
	}{
		{"Jane Smith & John Doe's Wedding", "Jane Smith", "John Doe"},
		{"Jane Smith and John Doe", "Jane Smith", "John Doe"},
		{"Jane + John", "Jane", "John"},
		{"Jane & John's Wedding Website - June 15", "Jane", "John"},
		{"Jane AND John", "Jane", "John"},
		{"Welcome to our wedding", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		p1, p2 := ParseCoupleNames(tt.in)
		assert.Equal(t, tt.want1, p1, tt.in)
		assert.Equal(t, tt.want2, p2, tt.in)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"June 15, 2025", "2025-06-15"},
		{"June 15 2025", "2025-06-15"},
		{"Jun 15, 2025", "2025-06-15"},
		{"September 3rd, 2026", "2026-09-03"},
		{"15 June 2025", "2025-06-15"},
		{"3rd September 2026", "2026-09-03"},
		{"15 Juneteenth 2025", ""},
		{"6/15/2025", "2025-06-15"},
		{"2025-06-15", "2025-06-15"},
		{"Saturday, June 15, 2025", "2025-06-15"},
		{"13/45/2025", ""},
		{"Juneteenth 2025", ""},
		{"sometime next summer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDate(tt.in), tt.in)
	}
}

func TestMapMergesDirectOverLLMScalars(t *testing.T) {
	llm := &stubLLM{record: &model.WeddingRecord{
		Partner1Name: "J.",
		Partner2Name: "J.",
		WeddingDate:  "2025-01-01",
		WeddingTime:  "4:00 PM",
		Events:       []model.Event{{EventName: "Ceremony"}},
		Accommodations: []model.Accommodation{
			{HotelName: "Courtyard Marriott", HasRoomBlock: true},
		},
		FAQs: []model.FAQ{{Question: "Dress code?", Answer: "Cocktail"}},
	}}
	m := New(llm, nil, slog.Default())

	bundle := &model.RawScrapeBundle{
		URL: "https://www.zola.com/wedding/jane-john",
		Hints: model.StructuredHints{
			CoupleNames:     "Jane Smith & John Doe's Wedding",
			WeddingDateText: "June 15, 2025",
			RSVPURL:         "https://www.zola.com/wedding/jane-john/rsvp",
		},
		FullText: "full text",
	}

	record, err := m.Map(context.Background(), bundle)
	require.NoError(t, err)

	// Deterministic scalars win.
	assert.Equal(t, "Jane Smith", record.Partner1Name)
	assert.Equal(t, "John Doe", record.Partner2Name)
	assert.Equal(t, "2025-06-15", record.WeddingDate)
	assert.Equal(t, "https://www.zola.com/wedding/jane-john/rsvp", record.RSVPURL)

	// List fields come from the model pass wholesale.
	require.Len(t, record.Accommodations, 1)
	assert.Equal(t, "Courtyard Marriott", record.Accommodations[0].HotelName)
	assert.Len(t, record.Events, 1)
	assert.Len(t, record.FAQs, 1)

	// Scalars the direct pass could not fill survive from the model pass.
	assert.Equal(t, "4:00 PM", record.WeddingTime)
}

func TestMapDegradesWhenLLMFails(t *testing.T) {
	llm := &stubLLM{err: errors.New("api timeout")}
	m := New(llm, nil, slog.Default())

	bundle := &model.RawScrapeBundle{
		Hints: model.StructuredHints{
			CoupleNames:     "Jane & John",
			WeddingDateText: "June 15, 2025",
		},
		FullText: "full text",
	}

	record, err := m.Map(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, "Jane", record.Partner1Name)
	assert.Equal(t, "John", record.Partner2Name)
	assert.Equal(t, "2025-06-15", record.WeddingDate)
	assert.Empty(t, record.Accommodations)
}

func TestMapCountsLLMFailures(t *testing.T) {
	var failures int64
	metrics := &telemetry.ScrapeMetrics{
		LlmFailureCnt: func(count int64) { failures += count },
	}
	m := New(&stubLLM{err: errors.New("api timeout")}, metrics, slog.Default())

	_, err := m.Map(context.Background(), &model.RawScrapeBundle{FullText: "full text"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), failures)
}

func TestDirectPassRegistryLinks(t *testing.T) {
	llm := &stubLLM{record: &model.WeddingRecord{}}
	m := New(llm, nil, slog.Default())

	bundle := &model.RawScrapeBundle{
		Hints: model.StructuredHints{
			RegistryLinks: []model.Link{
				{Text: "Amazon", URL: "https://amazon.com/registry/1"},
				{Text: "Target", URL: "https://target.com/registry/2"},
				{Text: "Amazon", URL: "https://amazon.com/registry/duplicate"},
			},
		},
	}

	record, err := m.Map(context.Background(), bundle)
	require.NoError(t, err)
	require.Len(t, record.RegistryURLs, 2)
	assert.Equal(t, "https://amazon.com/registry/1", record.RegistryURLs["Amazon"])
	assert.Equal(t, "https://target.com/registry/2", record.RegistryURLs["Target"])
}

func TestPreview(t *testing.T) {
	record := &model.WeddingRecord{
		Partner1Name:       "Jane",
		Partner2Name:       "John",
		WeddingDate:        "2025-06-15",
		CeremonyVenueName:  "Grand Hotel",
		ReceptionVenueName: "Grand Hotel Ballroom",
		DressCode:          "Cocktail",
		RegistryURLs:       map[string]string{"Amazon": "https://amazon.com/r/1"},
		Events:             []model.Event{{EventName: "Ceremony"}, {EventName: "Reception"}},
		Accommodations:     []model.Accommodation{{HotelName: "Courtyard"}},
		FAQs:               []model.FAQ{{Question: "q", Answer: "a"}},
	}

	p := Preview(record)
	assert.Equal(t, "Jane", p.Partner1Name)
	assert.Equal(t, 2, p.EventsCount)
	assert.Equal(t, 1, p.AccommodationsCount)
	assert.Equal(t, 1, p.FAQCount)
	assert.True(t, p.HasRegistry)
}
