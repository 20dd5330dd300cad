package dto

import (
	"time"

	"mapportal/internal/microservices/http-api/models"
)

// MapQuery is bound from the GET /api/maps query string. Nil means the
// parameter was absent; only absent parameters take defaults.
type MapQuery struct {
	TerrainType *string  `form:"terrain_type"`
	Size        *int     `form:"size"`
	PlayerCount *int     `form:"player_count"`
	MinRating   *float64 `form:"min_rating"`
	Author      *string  `form:"author"`
	CreatorID   *string  `form:"creator_id"`
	Search      *string  `form:"search"`
	SortBy      *string  `form:"sort_by"`
	SortOrder   *string  `form:"sort_order"`
	Page        *int     `form:"page"`
	PageSize    *int     `form:"page_size"`
	Limit       *int     `form:"limit"` // older clients send limit instead of page_size
}

// UploadMapForm holds the text fields of the multipart upload. The two JSON
// fields are decoded into GenerationParams and BARMapInfo by the handler.
type UploadMapForm struct {
	Name             string  `form:"name" binding:"required,min=1,max=255"`
	Shortname        string  `form:"shortname" binding:"required,min=1,max=100"`
	Description      *string `form:"description"`
	Author           string  `form:"author" binding:"required,min=1,max=100"`
	Version          string  `form:"version" binding:"omitempty,max=50"`
	GenerationParams string  `form:"generation_params" binding:"required"`
	BarInfo          string  `form:"bar_info" binding:"required"`
}

type GenerationParams struct {
	Size            int     `json:"size" binding:"required,oneof=512 1024 2048 4096"`
	TerrainType     string  `json:"terrain_type" binding:"required,oneof=continental islands mountainous desert arctic plains"`
	PlayerCount     int     `json:"player_count" binding:"required,min=1,max=32"`
	NoiseStrength   float64 `json:"noise_strength" binding:"min=0,max=10"`
	HeightVariation float64 `json:"height_variation" binding:"min=0,max=1"`
	WaterLevel      float64 `json:"water_level" binding:"min=0,max=1"`
	MetalSpots      int     `json:"metal_spots" binding:"min=0"`
	MetalStrength   float64 `json:"metal_strength" binding:"min=0,max=10"`
	GeoSpots        int     `json:"geo_spots" binding:"min=0"`
	StartPositions  string  `json:"start_positions" binding:"required,max=50"`
}

// BARMapInfo mirrors the mapinfo.txt values of the package. Gravity,
// tidal strength and max metal default to 100 when omitted.
type BARMapInfo struct {
	MapX          int  `json:"mapx" binding:"required,min=1"`
	MapY          int  `json:"mapy" binding:"required,min=1"`
	MaxPlayers    int  `json:"maxplayers" binding:"required,min=1,max=32"`
	Gravity       *int `json:"gravity" binding:"omitempty,min=0"`
	TidalStrength *int `json:"tidalstrength" binding:"omitempty,min=0"`
	MaxMetal      *int `json:"maxmetal" binding:"omitempty,min=0"`
}

// ToModel builds the map row for creatorID from validated upload metadata.
func (f UploadMapForm) ToModel(creatorID string, gen GenerationParams, bar BARMapInfo) *models.Map {
	version := f.Version
	if version == "" {
		version = "1.0"
	}
	return &models.Map{
		Name:        f.Name,
		Shortname:   f.Shortname,
		Description: f.Description,
		Author:      f.Author,
		Version:     version,
		CreatorID:   creatorID,

		MapX:          bar.MapX,
		MapY:          bar.MapY,
		MaxPlayers:    bar.MaxPlayers,
		Gravity:       orDefault(bar.Gravity, 100),
		TidalStrength: orDefault(bar.TidalStrength, 100),
		MaxMetal:      orDefault(bar.MaxMetal, 100),

		Size:            gen.Size,
		TerrainType:     gen.TerrainType,
		PlayerCount:     gen.PlayerCount,
		NoiseStrength:   gen.NoiseStrength,
		HeightVariation: gen.HeightVariation,
		WaterLevel:      gen.WaterLevel,
		MetalSpots:      gen.MetalSpots,
		MetalStrength:   gen.MetalStrength,
		GeoSpots:        gen.GeoSpots,
		StartPositions:  gen.StartPositions,
	}
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// UserProfile is the public view of a user: never email or password hash.
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func FromModelToUserProfile(u models.User) UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username}
}

// MapSummaryResponse is one listing row.
type MapSummaryResponse struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Shortname        string      `json:"shortname"`
	Author           string      `json:"author"`
	TerrainType      string      `json:"terrain_type"`
	Size             int         `json:"size"`
	PlayerCount      int         `json:"player_count"`
	MaxPlayers       int         `json:"maxplayers"`
	AverageRating    float64     `json:"average_rating"`
	RatingCount      int64       `json:"rating_count"`
	DownloadCount    int64       `json:"download_count"`
	PreviewImagePath *string     `json:"preview_image_path,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	Creator          UserProfile `json:"creator"`
}

func FromModelToSummary(m models.Map) MapSummaryResponse {
	return MapSummaryResponse{
		ID:               m.ID,
		Name:             m.Name,
		Shortname:        m.Shortname,
		Author:           m.Author,
		TerrainType:      m.TerrainType,
		Size:             m.Size,
		PlayerCount:      m.PlayerCount,
		MaxPlayers:       m.MaxPlayers,
		AverageRating:    m.AverageRating,
		RatingCount:      m.RatingCount,
		DownloadCount:    m.DownloadCount,
		PreviewImagePath: m.PreviewImagePath,
		CreatedAt:        m.CreatedAt,
		Creator:          FromModelToUserProfile(m.Creator),
	}
}

type MapListResponse struct {
	Items      []MapSummaryResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// MapResponse is the full map record returned after upload.
type MapResponse struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Shortname   string      `json:"shortname"`
	Description *string     `json:"description,omitempty"`
	Author      string      `json:"author"`
	Version     string      `json:"version"`
	CreatorID   string      `json:"creator_id"`
	Creator     UserProfile `json:"creator"`

	MapX          int `json:"mapx"`
	MapY          int `json:"mapy"`
	MaxPlayers    int `json:"maxplayers"`
	Gravity       int `json:"gravity"`
	TidalStrength int `json:"tidalstrength"`
	MaxMetal      int `json:"maxmetal"`

	Size            int     `json:"size"`
	TerrainType     string  `json:"terrain_type"`
	PlayerCount     int     `json:"player_count"`
	NoiseStrength   float64 `json:"noise_strength"`
	HeightVariation float64 `json:"height_variation"`
	WaterLevel      float64 `json:"water_level"`
	MetalSpots      int     `json:"metal_spots"`
	MetalStrength   float64 `json:"metal_strength"`
	GeoSpots        int     `json:"geo_spots"`
	StartPositions  string  `json:"start_positions"`

	DownloadCount int64   `json:"download_count"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`

	FilePath         string  `json:"file_path"`
	PreviewImagePath *string `json:"preview_image_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapDetailResponse adds the most recent ratings and comments.
type MapDetailResponse struct {
	MapResponse
	Ratings  []RatingResponse  `json:"ratings"`
	Comments []CommentResponse `json:"comments"`
}

func FromModelToMapResponse(m models.Map) MapResponse {
	return MapResponse{
		ID:          m.ID,
		Name:        m.Name,
		Shortname:   m.Shortname,
		Description: m.Description,
		Author:      m.Author,
		Version:     m.Version,
		CreatorID:   m.CreatorID,
		Creator:     FromModelToUserProfile(m.Creator),

		MapX:          m.MapX,
		MapY:          m.MapY,
		MaxPlayers:    m.MaxPlayers,
		Gravity:       m.Gravity,
		TidalStrength: m.TidalStrength,
		MaxMetal:      m.MaxMetal,

		Size:            m.Size,
		TerrainType:     m.TerrainType,
		PlayerCount:     m.PlayerCount,
		NoiseStrength:   m.NoiseStrength,
		HeightVariation: m.HeightVariation,
		WaterLevel:      m.WaterLevel,
		MetalSpots:      m.MetalSpots,
		MetalStrength:   m.MetalStrength,
		GeoSpots:        m.GeoSpots,
		StartPositions:  m.StartPositions,

		DownloadCount: m.DownloadCount,
		AverageRating: m.AverageRating,
		RatingCount:   m.RatingCount,

		FilePath:         m.FilePath,
		PreviewImagePath: m.PreviewImagePath,

		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromModelToDetail(m models.Map) MapDetailResponse {
	ratings := make([]RatingResponse, 0, len(m.Ratings))
	for i := range m.Ratings {
		ratings = append(ratings, *FromModelToRatingResponse(&m.Ratings[i]))
	}
	comments := make([]CommentResponse, 0, len(m.Comments))
	for i := range m.Comments {
		comments = append(comments, *FromModelToCommentResponse(&m.Comments[i]))
	}
	return MapDetailResponse{
		MapResponse: FromModelToMapResponse(m),
		Ratings:     ratings,
		Comments:    comments,
	}
}

// MapDownload tells the handler which stored file to stream and under which name.
type MapDownload struct {
	Path     string
	Filename string
}

// TotalPages is ceil(total/pageSize), or 0 when nothing matched.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
