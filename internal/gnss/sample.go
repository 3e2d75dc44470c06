package gnss

// Sample represents a single GNSS position/time fix suitable for JSON and MQTT.
type Sample struct {
	Lat    float64 `json:"lat"`  // decimal degrees, positive north
	Lon    float64 `json:"lon"`  // decimal degrees, positive east
	HHMMSS uint32  `json:"time"` // time of day packed as HHMMSS, e.g. 211507
	Valid  bool    `json:"valid"`
}
