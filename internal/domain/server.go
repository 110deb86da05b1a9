package domain

// Server is a game server sighted in a submission, deduplicated by exact
// name. Created lazily on first sighting and never mutated afterwards.
type Server struct {
	ServerID int    `json:"server_id"`
	Name     string `json:"name"`
}

// Map is a playable map, deduplicated by exact name like Server.
type Map struct {
	MapID int    `json:"map_id"`
	Name  string `json:"name"`
}
