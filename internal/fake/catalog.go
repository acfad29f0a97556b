// Package fake produces representative literal values for generated data
// providers, first by matching a name against semantic categories, then by
// falling back to a default per primitive type.
package fake

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Generator produces one value. Values are PHP-exportable: string, int,
// float64, bool or []any.
type Generator func(f *gofakeit.Faker) any

// Entry maps a generator key to the name fragments that select it. The key
// itself is always the first fragment.
type Entry struct {
	Category string
	Key      string
	Patterns []string
	Generate Generator
}

// Fragments returns the case-folded fragments matched against names.
func (e Entry) Fragments() []string {
	out := make([]string, 0, len(e.Patterns)+1)
	out = append(out, strings.ToLower(e.Key))
	for _, p := range e.Patterns {
		out = append(out, strings.ToLower(p))
	}
	return out
}

func words(f *gofakeit.Faker, n int, sep string) string {
	out := make([]string, n)
	for i := range out {
		out[i] = f.Word()
	}
	return strings.Join(out, sep)
}

func sentence(f *gofakeit.Faker) string {
	s := words(f, 8, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func date(layout string) Generator {
	return func(f *gofakeit.Faker) any { return f.Date().UTC().Format(layout) }
}

func digest(sum func([]byte) []byte) Generator {
	return func(f *gofakeit.Faker) any { return hex.EncodeToString(sum([]byte(f.UUID()))) }
}

func image(f *gofakeit.Faker) any {
	return fmt.Sprintf("https://picsum.photos/%d/%d.jpg", f.Number(2, 8)*80, f.Number(2, 6)*80)
}

// Catalog is the ordered name-heuristic table. Order matters: the first
// entry with a fragment contained in the name wins.
var Catalog = []Entry{
	{Category: "Lorem", Key: "text", Generate: func(f *gofakeit.Faker) any { return sentence(f) }},

	{Category: "Person", Key: "titleMale", Generate: func(f *gofakeit.Faker) any { return f.NamePrefix() }},
	{Category: "Person", Key: "titleFemale", Generate: func(f *gofakeit.Faker) any { return f.NamePrefix() }},
	{Category: "Person", Key: "name", Patterns: []string{"user", "member"}, Generate: func(f *gofakeit.Faker) any { return f.Name() }},
	{Category: "Person", Key: "firstName", Generate: func(f *gofakeit.Faker) any { return f.FirstName() }},
	{Category: "Person", Key: "firstNameMale", Generate: func(f *gofakeit.Faker) any { return f.FirstName() }},
	{Category: "Person", Key: "firstNameFemale", Generate: func(f *gofakeit.Faker) any { return f.FirstName() }},
	{Category: "Person", Key: "lastName", Generate: func(f *gofakeit.Faker) any { return f.LastName() }},

	{Category: "Address", Key: "address", Generate: func(f *gofakeit.Faker) any { return f.Address().Address }},
	{Category: "Address", Key: "state", Generate: func(f *gofakeit.Faker) any { return f.State() }},
	{Category: "Address", Key: "stateAbbr", Generate: func(f *gofakeit.Faker) any { return f.StateAbr() }},
	{Category: "Address", Key: "streetSuffix", Generate: func(f *gofakeit.Faker) any { return f.StreetSuffix() }},
	{Category: "Address", Key: "buildingNumber", Generate: func(f *gofakeit.Faker) any { return f.StreetNumber() }},
	{Category: "Address", Key: "city", Generate: func(f *gofakeit.Faker) any { return f.City() }},
	{Category: "Address", Key: "streetName", Generate: func(f *gofakeit.Faker) any { return f.StreetName() }},
	{Category: "Address", Key: "streetAddress", Generate: func(f *gofakeit.Faker) any { return f.Street() }},
	{Category: "Address", Key: "postcode", Patterns: []string{"zip"}, Generate: func(f *gofakeit.Faker) any { return f.Zip() }},
	{Category: "Address", Key: "country", Generate: func(f *gofakeit.Faker) any { return f.Country() }},
	{Category: "Address", Key: "latitude", Generate: func(f *gofakeit.Faker) any { return f.Latitude() }},
	{Category: "Address", Key: "longitude", Generate: func(f *gofakeit.Faker) any { return f.Longitude() }},

	{Category: "Phone", Key: "phoneNumber", Patterns: []string{"phone"}, Generate: func(f *gofakeit.Faker) any { return f.Phone() }},
	{Category: "Phone", Key: "e164PhoneNumber", Generate: func(f *gofakeit.Faker) any { return "+" + f.Phone() }},

	{Category: "Company", Key: "catchPhrase", Generate: func(f *gofakeit.Faker) any { return f.BS() }},
	{Category: "Company", Key: "company", Generate: func(f *gofakeit.Faker) any { return f.Company() }},
	{Category: "Company", Key: "companySuffix", Generate: func(f *gofakeit.Faker) any { return f.CompanySuffix() }},
	{Category: "Company", Key: "jobTitle", Generate: func(f *gofakeit.Faker) any { return f.JobTitle() }},

	{Category: "Text", Key: "realText", Patterns: []string{"content", "text", "article", "description"}, Generate: func(f *gofakeit.Faker) any { return sentence(f) }},

	{Category: "DateTime", Key: "unixTime", Generate: func(f *gofakeit.Faker) any { return int(f.Date().Unix()) }},
	{Category: "DateTime", Key: "dateTime", Generate: date(time.RFC3339)},
	{Category: "DateTime", Key: "iso8601", Generate: date("2006-01-02T15:04:05-0700")},
	{Category: "DateTime", Key: "date", Generate: date("2006-01-02")},
	{Category: "DateTime", Key: "time", Generate: date("15:04:05")},
	{Category: "DateTime", Key: "dayOfMonth", Generate: func(f *gofakeit.Faker) any { return fmt.Sprintf("%02d", f.Day()) }},
	{Category: "DateTime", Key: "dayOfWeek", Generate: func(f *gofakeit.Faker) any { return f.WeekDay() }},
	{Category: "DateTime", Key: "month", Generate: func(f *gofakeit.Faker) any { return fmt.Sprintf("%02d", f.Month()) }},
	{Category: "DateTime", Key: "monthName", Generate: func(f *gofakeit.Faker) any { return f.MonthString() }},
	{Category: "DateTime", Key: "year", Generate: func(f *gofakeit.Faker) any { return fmt.Sprint(f.Year()) }},
	{Category: "DateTime", Key: "timezone", Generate: func(f *gofakeit.Faker) any { return f.TimeZoneRegion() }},

	{Category: "Internet", Key: "email", Generate: func(f *gofakeit.Faker) any { return f.Email() }},
	{Category: "Internet", Key: "userName", Generate: func(f *gofakeit.Faker) any { return f.Username() }},
	{Category: "Internet", Key: "password", Generate: func(f *gofakeit.Faker) any { return f.Password(true, true, true, true, false, 12) }},
	{Category: "Internet", Key: "domainName", Generate: func(f *gofakeit.Faker) any { return f.DomainName() }},
	{Category: "Internet", Key: "domainWord", Generate: func(f *gofakeit.Faker) any { return strings.ToLower(f.Word()) }},
	{Category: "Internet", Key: "tld", Generate: func(f *gofakeit.Faker) any { return f.DomainSuffix() }},
	{Category: "Internet", Key: "url", Generate: func(f *gofakeit.Faker) any { return f.URL() }},
	{Category: "Internet", Key: "slug", Generate: func(f *gofakeit.Faker) any { return strings.ToLower(words(f, 4, "-")) }},
	{Category: "Internet", Key: "ipv4", Generate: func(f *gofakeit.Faker) any { return f.IPv4Address() }},
	{Category: "Internet", Key: "ipv6", Generate: func(f *gofakeit.Faker) any { return f.IPv6Address() }},
	{Category: "Internet", Key: "macAddress", Generate: func(f *gofakeit.Faker) any { return f.MacAddress() }},

	{Category: "UserAgent", Key: "userAgent", Generate: func(f *gofakeit.Faker) any { return f.UserAgent() }},
	{Category: "UserAgent", Key: "chrome", Generate: func(f *gofakeit.Faker) any { return f.ChromeUserAgent() }},
	{Category: "UserAgent", Key: "firefox", Generate: func(f *gofakeit.Faker) any { return f.FirefoxUserAgent() }},
	{Category: "UserAgent", Key: "safari", Generate: func(f *gofakeit.Faker) any { return f.SafariUserAgent() }},
	{Category: "UserAgent", Key: "opera", Generate: func(f *gofakeit.Faker) any { return f.OperaUserAgent() }},

	{Category: "Payment", Key: "creditCardType", Generate: func(f *gofakeit.Faker) any { return f.CreditCardType() }},
	{Category: "Payment", Key: "creditCardNumber", Patterns: []string{"creditCard"}, Generate: func(f *gofakeit.Faker) any { return f.CreditCardNumber(nil) }},
	{Category: "Payment", Key: "creditCardExpirationDate", Generate: func(f *gofakeit.Faker) any { return f.CreditCardExp() }},

	{Category: "Color", Key: "color", Generate: func(f *gofakeit.Faker) any { return f.Color() }},

	{Category: "Image", Key: "imageUrl", Generate: image},
	{Category: "Image", Key: "image", Patterns: []string{"img", "jpg"}, Generate: image},

	{Category: "Uuid", Key: "uuid", Generate: func(f *gofakeit.Faker) any { return f.UUID() }},

	{Category: "Barcode", Key: "barcode", Generate: func(f *gofakeit.Faker) any { return fmt.Sprintf("%013d", f.Number(1, 999999999)) }},

	{Category: "Miscellaneous", Key: "boolean", Generate: func(f *gofakeit.Faker) any { return f.Bool() }},
	{Category: "Miscellaneous", Key: "md5", Generate: digest(func(b []byte) []byte { s := md5.Sum(b); return s[:] })},
	{Category: "Miscellaneous", Key: "sha1", Generate: digest(func(b []byte) []byte { s := sha1.Sum(b); return s[:] })},
	{Category: "Miscellaneous", Key: "sha256", Generate: digest(func(b []byte) []byte { s := sha256.Sum256(b); return s[:] })},
	{Category: "Miscellaneous", Key: "locale", Generate: func(f *gofakeit.Faker) any { return f.LanguageAbbreviation() + "_" + f.CountryAbr() }},
	{Category: "Miscellaneous", Key: "countryCode", Generate: func(f *gofakeit.Faker) any { return f.CountryAbr() }},
	{Category: "Miscellaneous", Key: "languageCode", Generate: func(f *gofakeit.Faker) any { return f.LanguageAbbreviation() }},
	{Category: "Miscellaneous", Key: "currencyCode", Generate: func(f *gofakeit.Faker) any { return f.CurrencyShort() }},
	{Category: "Miscellaneous", Key: "emoji", Generate: func(f *gofakeit.Faker) any { return f.Emoji() }},

	{Category: "Html", Key: "randomHtml", Patterns: []string{"html"}, Generate: func(f *gofakeit.Faker) any { return "<p>" + sentence(f) + "</p>" }},
}
