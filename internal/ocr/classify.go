package ocr

import "strings"

// Classification maps an order number to its document class. Overlapping
// ranges concatenate their options with " / ".
type Classification struct {
	Class        string
	Denomination string
}

const UnknownClass = "DESCONOCIDO"

type classRange struct {
	low, high    int64
	class        string
	denomination string
}

var classRanges = []classRange{
	{4000000000, 4099999999, "ZBNS", "OC Nacional c/Solic."},
	{4000000000, 4099999999, "ZBNC", "OC Nacional c/Contr."},
	{4100000000, 4199999999, "ZIMP", "OC Import. c/Solic."},
	{4200000000, 4299999999, "ZSUB", "OC Subcont. c/Solic."},
	{4300000000, 4499999999, "ZSES", "OC Servicios c/Solic."},
	{4300000000, 4499999999, "ZSEC", "OC Servicios c/Cont."},
	{4400000000, 4499999999, "ZTM1", "OC Serv. Transp."},
	{4500000000, 4599999999, "ZCON", "Ord. Consignación"},
	{4600000000, 4699999999, "ZAFL", "OC Afijo Nac. c/Solic."},
	{4600000000, 4699999999, "ZAFI", "OC Afijo Import. c/Solic."},
}

// CleanOrderNumber normalizes a raw order-number capture: numbers starting
// with 4 keep their first 10 digits, anything else keeps its last 10 digits.
func CleanOrderNumber(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}

	if strings.HasPrefix(d, "4") {
		if len(d) > 10 {
			return d[:10]
		}
		return d
	}
	if len(d) > 10 {
		return d[len(d)-10:]
	}
	return d
}

// Classify resolves the document class for a cleaned order number.
func Classify(orderNumber string) Classification {
	num, ok := parseDigits(orderNumber)
	if !ok {
		return Classification{}
	}

	var classes, denominations []string
	for _, r := range classRanges {
		if num >= r.low && num <= r.high {
			classes = append(classes, r.class)
			denominations = append(denominations, r.denomination)
		}
	}

	if len(classes) == 0 {
		return Classification{Class: UnknownClass, Denomination: "Rango no clasificado"}
	}
	return Classification{
		Class:        strings.Join(classes, " / "),
		Denomination: strings.Join(denominations, " / "),
	}
}

func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	return n, true
}
