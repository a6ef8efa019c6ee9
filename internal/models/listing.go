// internal/models/listing.go
package models

type WasteType string

const (
	WasteTypeOrganic WasteType = "organic"
	WasteTypePlastic WasteType = "plastic"
	WasteTypePaper   WasteType = "paper"
	WasteTypeGlass   WasteType = "glass"
	WasteTypeMetal   WasteType = "metal"
	WasteTypeOther   WasteType = "other"
)

type ListingStatus string

const (
	ListingStatusAvailable     ListingStatus = "available"
	ListingStatusPendingPickup ListingStatus = "pending_pickup"
	ListingStatusCompleted     ListingStatus = "completed"
	ListingStatusCancelled     ListingStatus = "cancelled"
)

// OpenListingStatuses are the statuses that count toward a composter's current
// load: the listing is assigned but not yet finalized.
var OpenListingStatuses = []ListingStatus{
	ListingStatusAvailable,
	ListingStatusPendingPickup,
}

// WasteListing is a read-only snapshot of a posted listing as the matching
// engine sees it. The surrounding CRUD layer owns the record.
type WasteListing struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	WasteType   WasteType     `json:"wasteType"`
	Status      ListingStatus `json:"status"`
	OwnerID     int64         `json:"ownerId"`
	ComposterID *int64        `json:"composterId,omitempty"`
	Location    Location      `json:"location"`
}
