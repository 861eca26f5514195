package places

// Wire types for the Google Places Web Service (legacy JSON endpoints).

// Location is a lat/lng pair as returned by the API.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry holds a result's location.
type Geometry struct {
	Location Location `json:"location"`
}

// Result is one place summary from Nearby Search or Text Search.
type Result struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Geometry         Geometry `json:"geometry"`
	Vicinity         string   `json:"vicinity,omitempty"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	Types            []string `json:"types,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
}

type searchResponse struct {
	Results       []Result `json:"results"`
	NextPageToken string   `json:"next_page_token"`
	Status        string   `json:"status"`
	ErrorMessage  string   `json:"error_message,omitempty"`
}

// AddressComponent is one structured piece of a place's address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Review is one customer review exposed by Place Details. The API returns at
// most a small recent subset, not the full history.
type Review struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"` // unix seconds
}

// Details is the Place Details result.
type Details struct {
	PlaceID           string             `json:"place_id"`
	Name              string             `json:"name"`
	Geometry          Geometry           `json:"geometry"`
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []AddressComponent `json:"address_components"`
	Rating            float64            `json:"rating"`
	UserRatingsTotal  int                `json:"user_ratings_total"`
	Reviews           []Review           `json:"reviews"`
}

type detailsResponse struct {
	Result       Details `json:"result"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// Components is a place address broken into the fields exports group by.
type Components struct {
	City    string
	State   string
	Zip     string
	Country string
}

// Components extracts city/state/zip/country from the address components.
func (d *Details) Components() Components {
	var out Components
	for _, c := range d.AddressComponents {
		for _, t := range c.Types {
			switch t {
			case "locality":
				out.City = c.LongName
			case "administrative_area_level_1":
				out.State = c.ShortName
			case "postal_code":
				out.Zip = c.LongName
			case "country":
				out.Country = c.ShortName
			}
		}
	}
	return out
}

// Prediction is one address autocomplete suggestion.
type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

type autocompleteResponse struct {
	Predictions  []Prediction `json:"predictions"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}
