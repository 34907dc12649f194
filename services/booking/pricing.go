package booking

import (
	"icehaus/config"
	"icehaus/models"
)

// PriceTable quotes sessions in integer pence. Communal sessions price per
// person; a private booking takes the whole slot at a flat rate. Heat
// services (sauna, contrast therapy) carry a per-person surcharge.
type PriceTable struct {
	CommunalPence       int64
	PrivatePence        int64
	SaunaSurchargePence int64
}

// PriceTableFromConfig builds the table from the loaded configuration.
func PriceTableFromConfig() PriceTable {
	return PriceTable{
		CommunalPence:       config.AppConfig.CommunalPricePence,
		PrivatePence:        config.AppConfig.PrivatePricePence,
		SaunaSurchargePence: config.AppConfig.SaunaSurchargePence,
	}
}

func (t PriceTable) surcharge(serviceType string) int64 {
	switch serviceType {
	case "sauna", "contrast_therapy":
		return t.SaunaSurchargePence
	default:
		return 0
	}
}

// Quote returns the base price for a booking before discounts or credit.
func (t PriceTable) Quote(serviceType, bookingType string, guestCount int) int64 {
	if guestCount < 1 {
		guestCount = 1
	}
	switch bookingType {
	case models.BookingTypePrivate:
		return t.PrivatePence + t.surcharge(serviceType)*int64(models.CommunalCapacity)
	default:
		return (t.CommunalPence + t.surcharge(serviceType)) * int64(guestCount)
	}
}
