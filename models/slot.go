package models

// Capacity of a communal session. A private booking takes the whole slot.
const CommunalCapacity = 5

// Booking types.
const (
	BookingTypeCommunal = "communal"
	BookingTypePrivate  = "private"
)

// TimeSlot represents one bookable (date, time, service) unit.
// Slots are synthesized lazily for a day from the studio's configured
// session times; they are mutated on every booking commit/cancel and
// never deleted.
type TimeSlot struct {
	ID            string `bson:"id" json:"id"`
	Date          string `bson:"date" json:"date"`               // "2006-01-02"
	Time          string `bson:"time" json:"time"`               // "15:04:05"
	ServiceType   string `bson:"serviceType" json:"serviceType"` // e.g. "ice_bath", "sauna"
	Capacity      int    `bson:"capacity" json:"capacity"`
	OccupiedSeats int    `bson:"occupiedSeats" json:"occupiedSeats"`
	PrivateHold   bool   `bson:"privateHold" json:"privateHold"` // an exclusive private booking owns the slot
	Available     bool   `bson:"available" json:"available"`     // derived: occupied < capacity and no private hold
	Version       int    `bson:"version" json:"version"`
}

// SlotAvailability is the computed view of a slot consumed by clients.
type SlotAvailability struct {
	SlotID         string `json:"slotId"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	ServiceType    string `json:"serviceType"`
	AvailableSeats int    `json:"availableSeats"`
	HasPrivateHold bool   `json:"hasPrivateHold"`
	PrivateOpen    bool   `json:"privateOpen"` // true when the whole slot can still be taken privately
}
