package models

import "time"

// Map is one uploaded BAR map package. DownloadCount, AverageRating and
// RatingCount are cached statistics: only the rating aggregator and the
// download counter write them.
type Map struct {
	ID          int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"name" gorm:"size:255;not null;index:idx_maps_name"`
	Shortname   string  `json:"shortname" gorm:"size:100;not null"`
	Description *string `json:"description,omitempty" gorm:"type:text"`
	Author      string  `json:"author" gorm:"size:100;not null"`
	Version     string  `json:"version" gorm:"size:50;not null;default:'1.0'"`
	CreatorID   string  `json:"creator_id" gorm:"type:uuid;not null;index:idx_maps_creator_id"`

	// mapinfo.txt fields
	MapX          int `json:"mapx" gorm:"column:mapx;not null"`
	MapY          int `json:"mapy" gorm:"column:mapy;not null"`
	MaxPlayers    int `json:"maxplayers" gorm:"column:maxplayers;not null"`
	Gravity       int `json:"gravity" gorm:"not null;default:100"`
	TidalStrength int `json:"tidalstrength" gorm:"column:tidalstrength;not null;default:100"`
	MaxMetal      int `json:"maxmetal" gorm:"column:maxmetal;not null;default:100"`

	// generation parameters
	Size            int     `json:"size" gorm:"not null;index:idx_maps_size;index:idx_maps_size_terrain,priority:1"`
	TerrainType     string  `json:"terrain_type" gorm:"size:50;not null;index:idx_maps_terrain_type;index:idx_maps_size_terrain,priority:2"`
	PlayerCount     int     `json:"player_count" gorm:"not null;index:idx_maps_player_count;check:chk_maps_player_count,player_count >= 1 AND player_count <= 32"`
	NoiseStrength   float64 `json:"noise_strength" gorm:"not null"`
	HeightVariation float64 `json:"height_variation" gorm:"not null"`
	WaterLevel      float64 `json:"water_level" gorm:"not null"`
	MetalSpots      int     `json:"metal_spots" gorm:"not null"`
	MetalStrength   float64 `json:"metal_strength" gorm:"not null"`
	GeoSpots        int     `json:"geo_spots" gorm:"not null"`
	StartPositions  string  `json:"start_positions" gorm:"size:50;not null"`

	FilePath         string  `json:"file_path" gorm:"size:500;not null"`
	PreviewImagePath *string `json:"preview_image_path,omitempty" gorm:"size:500"`

	DownloadCount int64   `json:"download_count" gorm:"not null;default:0;index:idx_maps_downloads"`
	AverageRating float64 `json:"average_rating" gorm:"not null;default:0;index:idx_maps_rating,priority:1;check:chk_maps_average_rating,average_rating >= 0 AND average_rating <= 5"`
	RatingCount   int64   `json:"rating_count" gorm:"not null;default:0;index:idx_maps_rating,priority:2"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_maps_created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// associations; ratings and comments are owned by the map
	Creator  User      `json:"creator,omitempty" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE;"`
	Ratings  []Rating  `json:"-" gorm:"foreignKey:MapID;constraint:OnDelete:CASCADE;"`
	Comments []Comment `json:"-" gorm:"foreignKey:MapID;constraint:OnDelete:CASCADE;"`
}

func (Map) TableName() string {
	return "maps"
}

// Terrain types accepted on upload and as a listing filter.
var TerrainTypes = []string{"continental", "islands", "mountainous", "desert", "arctic", "plains"}

// MapSizes is the discrete set of map sizes (pixels per side).
var MapSizes = []int{512, 1024, 2048, 4096}

const (
	MinPlayerCount = 1
	MaxPlayerCount = 32
	MinRating      = 1
	MaxRating      = 5
)

// ValidTerrainType reports whether t is one of TerrainTypes.
func ValidTerrainType(t string) bool {
	for _, v := range TerrainTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ValidMapSize reports whether s is one of MapSizes.
func ValidMapSize(s int) bool {
	for _, v := range MapSizes {
		if v == s {
			return true
		}
	}
	return false
}
