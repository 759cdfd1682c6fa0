package bank

// DefaultInstitutions returns the built-in table of Indian banks, card issuers and payment apps.
func DefaultInstitutions() []Institution {
	return []Institution{
		{Name: "State Bank of India", SenderCodes: []string{"sbi", "sbiinb", "sbiupi", "cbssbi", "sbibnk", "sbipsg", "atmsbi"}, Keywords: []string{"state bank of india", "sbi"}},
		{Name: "SBI Card", SenderCodes: []string{"sbicrd", "sbicard"}, Keywords: []string{"sbi card", "sbicard"}},
		{Name: "SBI Mutual Fund", SenderCodes: []string{"sbimf", "sbimfd"}, Keywords: []string{"sbi mutual fund", "sbi mf"}},
		{Name: "HDFC Bank", SenderCodes: []string{"hdfc", "hdfcbk", "hdfcbn", "hdfcbank"}, Keywords: []string{"hdfc bank", "hdfc"}},
		{Name: "ICICI Bank", SenderCodes: []string{"icici", "icicib", "icicit"}, Keywords: []string{"icici bank", "icici"}},
		{Name: "Axis Bank", SenderCodes: []string{"axis", "axisbk", "axisbn"}, Keywords: []string{"axis bank"}},
		{Name: "Kotak Mahindra Bank", SenderCodes: []string{"kotak", "kotakb", "kmbl"}, Keywords: []string{"kotak mahindra bank", "kotak bank", "kotak"}},
		{Name: "Yes Bank", SenderCodes: []string{"yesbnk", "yesbank"}, Keywords: []string{"yes bank"}},
		{Name: "Punjab National Bank", SenderCodes: []string{"pnb", "pnbsms", "pnbbnk"}, Keywords: []string{"punjab national bank", "pnb"}},
		{Name: "Bank of India", SenderCodes: []string{"boi", "boiind"}, Keywords: []string{"bank of india"}},
		{Name: "Bank of Baroda", SenderCodes: []string{"bob", "bobtxn", "bobsms", "barodb"}, Keywords: []string{"bank of baroda"}},
		{Name: "Canara Bank", SenderCodes: []string{"canbnk", "canara", "cnrbnk"}, Keywords: []string{"canara bank", "canara"}},
		{Name: "Union Bank of India", SenderCodes: []string{"unionb", "ubinbk", "ubiinb"}, Keywords: []string{"union bank of india", "union bank"}},
		{Name: "IDBI Bank", SenderCodes: []string{"idbi", "idbibk"}, Keywords: []string{"idbi bank", "idbi"}},
		{Name: "IndusInd Bank", SenderCodes: []string{"indusb", "indusind"}, Keywords: []string{"indusind bank", "indusind"}},
		{Name: "Federal Bank", SenderCodes: []string{"fedbnk", "federl", "federal"}, Keywords: []string{"federal bank"}},
		{Name: "Karur Vysya Bank", SenderCodes: []string{"kvbank", "kvbsms"}, Keywords: []string{"karur vysya bank"}},
		{Name: "RBL Bank", SenderCodes: []string{"rblbnk", "rblbank"}, Keywords: []string{"rbl bank"}},
		{Name: "Indian Overseas Bank", SenderCodes: []string{"iobchn", "iobank"}, Keywords: []string{"indian overseas bank"}},
		{Name: "IDFC First Bank", SenderCodes: []string{"idfcfb", "idfcbk"}, Keywords: []string{"idfc first bank", "idfc first"}},
		{Name: "Paytm Payments Bank", SenderCodes: []string{"paytm", "ptmbnk"}, Keywords: []string{"paytm payments bank", "paytm"}},
		{Name: "PhonePe", SenderCodes: []string{"phonpe", "phonepe"}, Keywords: []string{"phonepe"}},
		{Name: "Google Pay", SenderCodes: []string{"gpay", "googlepay"}, Keywords: []string{"google pay", "gpay"}},
		{Name: "Amazon Pay", SenderCodes: []string{"amazonpay", "amzpay"}, Keywords: []string{"amazon pay"}},
		{Name: "MobiKwik", SenderCodes: []string{"mobikwik", "mobikw"}, Keywords: []string{"mobikwik"}},
		{Name: "Freecharge", SenderCodes: []string{"frecharge", "freecharge", "frchrg"}, Keywords: []string{"freecharge"}},
	}
}

// MustDefaultDirectory compiles the built-in table and panics if it is invalid.
func MustDefaultDirectory() *Directory {
	d, err := NewDirectory(DefaultInstitutions())
	if err != nil {
		panic(err)
	}
	return d
}
