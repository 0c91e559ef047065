package currency

import "strings"

// DefaultCode is the currency every unresolvable lookup degrades to.
const DefaultCode = "USD"

// Currency describes one entry of the static currency table.
type Currency struct {
	Code        string
	Symbol      string
	Name        string
	Countries   []string
	InstantRail bool
	GroupSep    string
	DecimalSep  string
	SymbolAfter bool
}

// Registry resolves countries to currencies and formats amounts. It is
// populated once at construction and read-only afterwards, so it is safe for
// concurrent use without locking.
type Registry struct {
	list   []Currency
	byCode map[string]Currency
}

// NewRegistry constructs the registry from the built-in currency table.
func NewRegistry() *Registry {
	return newRegistry(builtin)
}

func newRegistry(list []Currency) *Registry {
	byCode := make(map[string]Currency, len(list))
	for _, c := range list {
		byCode[c.Code] = c
	}
	return &Registry{list: list, byCode: byCode}
}

// Lookup returns the currency entry for the given code.
func (r *Registry) Lookup(code string) (Currency, bool) {
	c, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// ForCountry resolves a country to its currency. Unknown countries resolve to
// the default currency so checkout never stalls on missing data.
func (r *Registry) ForCountry(countryCode string) string {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if cc == "" {
		return DefaultCode
	}
	for _, c := range r.list {
		for _, member := range c.Countries {
			if member == cc {
				return c.Code
			}
		}
	}
	return DefaultCode
}

// InstantRailSupported reports whether the currency settles over an instant
// payment rail. Unknown codes report false.
func (r *Registry) InstantRailSupported(code string) bool {
	c, ok := r.Lookup(code)
	return ok && c.InstantRail
}

// All returns the registry contents in table order.
func (r *Registry) All() []Currency {
	out := make([]Currency, len(r.list))
	copy(out, r.list)
	return out
}

var builtin = []Currency{
	{Code: "USD", Symbol: "$", Name: "US Dollar", Countries: []string{"US"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "EUR", Symbol: "€", Name: "Euro", Countries: []string{"DE", "FR", "ES", "IT", "NL", "PT", "IE", "AT", "BE", "FI", "GR", "SK", "SI", "LV", "LT", "EE", "LU", "CY", "MT"}, InstantRail: true, GroupSep: ".", DecimalSep: ",", SymbolAfter: true},
	{Code: "GBP", Symbol: "£", Name: "British Pound", Countries: []string{"GB"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "BRL", Symbol: "R$", Name: "Brazilian Real", Countries: []string{"BR"}, InstantRail: true, GroupSep: ".", DecimalSep: ","},
	{Code: "NGN", Symbol: "₦", Name: "Nigerian Naira", Countries: []string{"NG"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "CAD", Symbol: "CA$", Name: "Canadian Dollar", Countries: []string{"CA"}, GroupSep: ",", DecimalSep: "."},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Countries: []string{"AU"}, GroupSep: ",", DecimalSep: "."},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Countries: []string{"JP"}, GroupSep: ",", DecimalSep: "."},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee", Countries: []string{"IN"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "MXN", Symbol: "MX$", Name: "Mexican Peso", Countries: []string{"MX"}, GroupSep: ",", DecimalSep: "."},
	{Code: "KES", Symbol: "KSh", Name: "Kenyan Shilling", Countries: []string{"KE"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "GHS", Symbol: "GH₵", Name: "Ghanaian Cedi", Countries: []string{"GH"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "ZAR", Symbol: "R", Name: "South African Rand", Countries: []string{"ZA"}, GroupSep: " ", DecimalSep: ","},
	{Code: "PHP", Symbol: "₱", Name: "Philippine Peso", Countries: []string{"PH"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "IDR", Symbol: "Rp", Name: "Indonesian Rupiah", Countries: []string{"ID"}, GroupSep: ".", DecimalSep: ","},
	{Code: "PKR", Symbol: "₨", Name: "Pakistani Rupee", Countries: []string{"PK"}, GroupSep: ",", DecimalSep: "."},
	{Code: "EGP", Symbol: "E£", Name: "Egyptian Pound", Countries: []string{"EG"}, GroupSep: ",", DecimalSep: "."},
	{Code: "TRY", Symbol: "₺", Name: "Turkish Lira", Countries: []string{"TR"}, GroupSep: ".", DecimalSep: ","},
	{Code: "AED", Symbol: "د.إ", Name: "UAE Dirham", Countries: []string{"AE"}, GroupSep: ",", DecimalSep: "."},
	{Code: "SAR", Symbol: "﷼", Name: "Saudi Riyal", Countries: []string{"SA"}, GroupSep: ",", DecimalSep: "."},
	{Code: "CNY", Symbol: "CN¥", Name: "Chinese Yuan", Countries: []string{"CN"}, GroupSep: ",", DecimalSep: "."},
	{Code: "KRW", Symbol: "₩", Name: "South Korean Won", Countries: []string{"KR"}, GroupSep: ",", DecimalSep: "."},
	{Code: "COP", Symbol: "COL$", Name: "Colombian Peso", Countries: []string{"CO"}, GroupSep: ".", DecimalSep: ","},
	{Code: "ARS", Symbol: "AR$", Name: "Argentine Peso", Countries: []string{"AR"}, GroupSep: ".", DecimalSep: ","},
	{Code: "CLP", Symbol: "CLP$", Name: "Chilean Peso", Countries: []string{"CL"}, GroupSep: ".", DecimalSep: ","},
	{Code: "PEN", Symbol: "S/", Name: "Peruvian Sol", Countries: []string{"PE"}, GroupSep: ",", DecimalSep: "."},
	{Code: "PLN", Symbol: "zł", Name: "Polish Zloty", Countries: []string{"PL"}, GroupSep: " ", DecimalSep: ",", SymbolAfter: true},
	{Code: "SEK", Symbol: "kr", Name: "Swedish Krona", Countries: []string{"SE"}, GroupSep: " ", DecimalSep: ",", SymbolAfter: true},
	{Code: "NOK", Symbol: "kr", Name: "Norwegian Krone", Countries: []string{"NO"}, GroupSep: " ", DecimalSep: ",", SymbolAfter: true},
	{Code: "DKK", Symbol: "kr", Name: "Danish Krone", Countries: []string{"DK"}, GroupSep: ".", DecimalSep: ",", SymbolAfter: true},
	{Code: "CHF", Symbol: "CHF", Name: "Swiss Franc", Countries: []string{"CH", "LI"}, GroupSep: "'", DecimalSep: "."},
	{Code: "NZD", Symbol: "NZ$", Name: "New Zealand Dollar", Countries: []string{"NZ"}, GroupSep: ",", DecimalSep: "."},
	{Code: "SGD", Symbol: "S$", Name: "Singapore Dollar", Countries: []string{"SG"}, GroupSep: ",", DecimalSep: "."},
	{Code: "MYR", Symbol: "RM", Name: "Malaysian Ringgit", Countries: []string{"MY"}, GroupSep: ",", DecimalSep: "."},
	{Code: "THB", Symbol: "฿", Name: "Thai Baht", Countries: []string{"TH"}, GroupSep: ",", DecimalSep: "."},
	{Code: "VND", Symbol: "₫", Name: "Vietnamese Dong", Countries: []string{"VN"}, GroupSep: ".", DecimalSep: ",", SymbolAfter: true},
	{Code: "BDT", Symbol: "৳", Name: "Bangladeshi Taka", Countries: []string{"BD"}, GroupSep: ",", DecimalSep: "."},
	{Code: "UGX", Symbol: "USh", Name: "Ugandan Shilling", Countries: []string{"UG"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "TZS", Symbol: "TSh", Name: "Tanzanian Shilling", Countries: []string{"TZ"}, InstantRail: true, GroupSep: ",", DecimalSep: "."},
	{Code: "XOF", Symbol: "CFA", Name: "West African CFA Franc", Countries: []string{"SN", "CI", "ML", "BF", "BJ", "TG", "NE", "GW"}, GroupSep: " ", DecimalSep: ",", SymbolAfter: true},
}
