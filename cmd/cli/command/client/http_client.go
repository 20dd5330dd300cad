package client

// http_client.go wraps the map portal REST API for the CLI.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mapportal/internal/microservices/http-api/dto"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status int
	Kind   string `json:"error"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
}

// ListOptions mirrors the catalog query parameters. Zero values are omitted.
type ListOptions struct {
	TerrainType string
	Size        int
	PlayerCount int
	MinRating   float64
	Author      string
	Search      string
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	setString := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setInt := func(key string, val int) {
		if val != 0 {
			v.Set(key, strconv.Itoa(val))
		}
	}
	setString("terrain_type", o.TerrainType)
	setInt("size", o.Size)
	setInt("player_count", o.PlayerCount)
	if o.MinRating != 0 {
		v.Set("min_rating", strconv.FormatFloat(o.MinRating, 'f', -1, 64))
	}
	setString("author", o.Author)
	setString("search", o.Search)
	setString("sort_by", o.SortBy)
	setString("sort_order", o.SortOrder)
	setInt("page", o.Page)
	setInt("page_size", o.PageSize)
	return v
}

// UploadRequest carries the metadata fields verbatim; GenerationParams and
// BarInfo are JSON documents.
type UploadRequest struct {
	FilePath         string
	PreviewPath      string
	Name             string
	Shortname        string
	Description      string
	Author           string
	Version          string
	GenerationParams string
	BarInfo          string
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// do sends req and decodes a JSON body into out when the status matches want.
func (c *HTTPClient) do(req *http.Request, want int, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Kind == "" {
		apiErr.Kind = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func (c *HTTPClient) newJSONRequest(method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Auth

func (c *HTTPClient) Login(request *dto.LoginRequest) (*dto.AuthResponse, error) {
	req, err := c.newJSONRequest(http.MethodPost, "/api/auth/login", request)
	if err != nil {
		return nil, err
	}
	var result dto.AuthResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Register(request *dto.RegisterRequest) (*dto.AuthResponse, error) {
	req, err := c.newJSONRequest(http.MethodPost, "/api/auth/register", request)
	if err != nil {
		return nil, err
	}
	var result dto.AuthResponse
	if err := c.do(req, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Me() (*dto.UserResponse, error) {
	req, err := c.newJSONRequest(http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var result dto.UserResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) DeleteAccount() error {
	req, err := c.newJSONRequest(http.MethodDelete, "/api/auth/me", nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusNoContent, nil)
}

// Maps

func (c *HTTPClient) ListMaps(opts ListOptions) (*dto.MapListResponse, error) {
	path := "/api/maps"
	if q := opts.values().Encode(); q != "" {
		path += "?" + q
	}
	req, err := c.newJSONRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var result dto.MapListResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetMap(id int64) (*dto.MapDetailResponse, error) {
	req, err := c.newJSONRequest(http.MethodGet, fmt.Sprintf("/api/maps/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var result dto.MapDetailResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadMap writes the package into dir and returns the written path.
func (c *HTTPClient) DownloadMap(id int64, dir string) (string, error) {
	req, err := c.newJSONRequest(http.MethodGet, fmt.Sprintf("/api/maps/%d/download", id), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	name := fmt.Sprintf("map_%d.sd7", id)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = filepath.Base(params["filename"])
	}
	target := filepath.Join(dir, name)

	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(target)
		return "", err
	}
	return target, f.Close()
}

func (c *HTTPClient) UploadMap(in UploadRequest) (*dto.MapResponse, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := attachFile(w, "file", in.FilePath); err != nil {
		return nil, err
	}
	if in.PreviewPath != "" {
		if err := attachFile(w, "preview_image", in.PreviewPath); err != nil {
			return nil, err
		}
	}
	fields := map[string]string{
		"name":              in.Name,
		"shortname":         in.Shortname,
		"description":       in.Description,
		"author":            in.Author,
		"version":           in.Version,
		"generation_params": in.GenerationParams,
		"bar_info":          in.BarInfo,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/maps/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result dto.MapResponse
	if err := c.do(req, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

// Ratings

// SubmitRating reports whether a new rating was created (true) or an
// existing one replaced (false).
func (c *HTTPClient) SubmitRating(mapID int64, value int) (*dto.RatingResponse, bool, error) {
	req, err := c.newJSONRequest(http.MethodPost, fmt.Sprintf("/api/maps/%d/ratings", mapID), dto.CreateRatingDTO{Rating: value})
	if err != nil {
		return nil, false, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, false, decodeError(resp)
	}
	var result dto.RatingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, err
	}
	return &result, resp.StatusCode == http.StatusCreated, nil
}

func (c *HTTPClient) GetUserRating(mapID int64) (*dto.RatingResponse, error) {
	req, err := c.newJSONRequest(http.MethodGet, fmt.Sprintf("/api/maps/%d/ratings/me", mapID), nil)
	if err != nil {
		return nil, err
	}
	var result dto.RatingResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListMapRatings(mapID int64, page, pageSize int) (*dto.PaginatedRatingResponse, error) {
	path := fmt.Sprintf("/api/maps/%d/ratings?page=%d&page_size=%d", mapID, page, pageSize)
	req, err := c.newJSONRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var result dto.PaginatedRatingResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Comments

func (c *HTTPClient) ListComments(mapID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error) {
	path := fmt.Sprintf("/api/maps/%d/comments?page=%d&page_size=%d", mapID, page, pageSize)
	req, err := c.newJSONRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var result dto.PaginatedCommentResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) CreateComment(mapID int64, content string) (*dto.CommentResponse, error) {
	req, err := c.newJSONRequest(http.MethodPost, fmt.Sprintf("/api/maps/%d/comments", mapID), dto.CreateCommentDTO{Content: content})
	if err != nil {
		return nil, err
	}
	var result dto.CommentResponse
	if err := c.do(req, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) UpdateComment(mapID, commentID int64, content string) (*dto.CommentResponse, error) {
	req, err := c.newJSONRequest(http.MethodPut, fmt.Sprintf("/api/maps/%d/comments/%d", mapID, commentID), dto.UpdateCommentDTO{Content: content})
	if err != nil {
		return nil, err
	}
	var result dto.CommentResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) DeleteComment(mapID, commentID int64) error {
	req, err := c.newJSONRequest(http.MethodDelete, fmt.Sprintf("/api/maps/%d/comments/%d", mapID, commentID), nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusNoContent, nil)
}
