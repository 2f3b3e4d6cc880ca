package model

// WeddingRecord is the target schema produced by the mapper. Scalar fields
// hold empty strings when unknown; list fields are nil when nothing was found.
type WeddingRecord struct {
	Partner1Name          string            `json:"partner1_name"`
	Partner2Name          string            `json:"partner2_name"`
	WeddingDate           string            `json:"wedding_date,omitempty"` // YYYY-MM-DD
	WeddingTime           string            `json:"wedding_time,omitempty"`
	DressCode             string            `json:"dress_code,omitempty"`
	CeremonyVenueName     string            `json:"ceremony_venue_name,omitempty"`
	CeremonyVenueAddress  string            `json:"ceremony_venue_address,omitempty"`
	ReceptionVenueName    string            `json:"reception_venue_name,omitempty"`
	ReceptionVenueAddress string            `json:"reception_venue_address,omitempty"`
	ReceptionTime         string            `json:"reception_time,omitempty"`
	RegistryURLs          map[string]string `json:"registry_urls,omitempty"`
	RSVPURL               string            `json:"rsvp_url,omitempty"`
	AdditionalNotes       string            `json:"additional_notes,omitempty"`
	Events                []Event           `json:"events,omitempty"`
	Accommodations        []Accommodation   `json:"accommodations,omitempty"`
	FAQs                  []FAQ             `json:"faqs,omitempty"`
}

type Event struct {
	EventName    string `json:"event_name"`
	EventDate    string `json:"event_date,omitempty"`
	EventTime    string `json:"event_time,omitempty"`
	VenueName    string `json:"venue_name,omitempty"`
	VenueAddress string `json:"venue_address,omitempty"`
	Description  string `json:"description,omitempty"`
	DressCode    string `json:"dress_code,omitempty"`
}

type Accommodation struct {
	HotelName         string `json:"hotel_name"`
	Address           string `json:"address,omitempty"`
	Phone             string `json:"phone,omitempty"`
	BookingURL        string `json:"booking_url,omitempty"`
	HasRoomBlock      bool   `json:"has_room_block"`
	RoomBlockName     string `json:"room_block_name,omitempty"`
	RoomBlockCode     string `json:"room_block_code,omitempty"`
	RoomBlockRate     string `json:"room_block_rate,omitempty"`
	RoomBlockDeadline string `json:"room_block_deadline,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// Preview is the human-facing summary shown before a caller commits an import.
type Preview struct {
	Partner1Name        string `json:"partner1_name"`
	Partner2Name        string `json:"partner2_name"`
	WeddingDate         string `json:"wedding_date,omitempty"`
	CeremonyVenue       string `json:"ceremony_venue,omitempty"`
	ReceptionVenue      string `json:"reception_venue,omitempty"`
	DressCode           string `json:"dress_code,omitempty"`
	EventsCount         int    `json:"events_count"`
	AccommodationsCount int    `json:"accommodations_count"`
	FAQCount            int    `json:"faq_count"`
	HasRegistry         bool   `json:"has_registry"`
}
