package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	DefaultDepth       = 3
	MaxDepth           = 50
)

// Result types accepted by search.
const (
	TypeObservation = "observation"
	TypeSummary     = "summary"
	TypeSession     = "session"
)

// SearchParams are the arguments of the search tool.
type SearchParams struct {
	Query     string `json:"query,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Project   string `json:"project,omitempty"`
	Type      string `json:"type,omitempty"`
	DateStart string `json:"dateStart,omitempty"`
	DateEnd   string `json:"dateEnd,omitempty"`
}

// WithDefaults fills the limit default.
func (p SearchParams) WithDefaults() SearchParams {
	if p.Limit == 0 {
		p.Limit = DefaultSearchLimit
	}
	return p
}

// Anchor is a record identifier returned by search. Agents send numeric ids
// as JSON numbers and other ids as strings; both decode to the same text.
type Anchor string

func (a *Anchor) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*a = Anchor(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("anchor must be a number or a string: %w", err)
	}
	*a = Anchor(s)
	return nil
}

// TimelineParams are the arguments of the timeline tool. Anchor is an
// identifier returned by search; Query looks the anchor up instead.
type TimelineParams struct {
	Anchor      Anchor `json:"anchor,omitempty"`
	Query       string `json:"query,omitempty"`
	DepthBefore *int   `json:"depth_before,omitempty"`
	DepthAfter  *int   `json:"depth_after,omitempty"`
	Project     string `json:"project,omitempty"`
}

// WithDefaults fills unset depths. Zero is a valid explicit depth.
func (p TimelineParams) WithDefaults() TimelineParams {
	if p.DepthBefore == nil {
		d := DefaultDepth
		p.DepthBefore = &d
	}
	if p.DepthAfter == nil {
		d := DefaultDepth
		p.DepthAfter = &d
	}
	return p
}

// BatchParams are the arguments of the batch-fetch tool.
type BatchParams struct {
	IDs []int64 `json:"ids"`
}

// EncodeSearch serializes p into query-string form. Empty fields are
// omitted.
func EncodeSearch(p SearchParams) url.Values {
	v := url.Values{}
	setString(v, "query", p.Query)
	if p.Limit != 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	setString(v, "project", p.Project)
	setString(v, "type", p.Type)
	setString(v, "dateStart", p.DateStart)
	setString(v, "dateEnd", p.DateEnd)
	return v
}

// DecodeSearch is the inverse of EncodeSearch.
func DecodeSearch(v url.Values) (SearchParams, error) {
	p := SearchParams{
		Query:     v.Get("query"),
		Project:   v.Get("project"),
		Type:      v.Get("type"),
		DateStart: v.Get("dateStart"),
		DateEnd:   v.Get("dateEnd"),
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return SearchParams{}, fmt.Errorf("invalid limit %q: %w", s, err)
		}
		p.Limit = n
	}
	return p, nil
}

// EncodeTimeline serializes p into query-string form.
func EncodeTimeline(p TimelineParams) url.Values {
	v := url.Values{}
	setString(v, "anchor", string(p.Anchor))
	setString(v, "query", p.Query)
	if p.DepthBefore != nil {
		v.Set("depth_before", strconv.Itoa(*p.DepthBefore))
	}
	if p.DepthAfter != nil {
		v.Set("depth_after", strconv.Itoa(*p.DepthAfter))
	}
	setString(v, "project", p.Project)
	return v
}

// DecodeTimeline is the inverse of EncodeTimeline.
func DecodeTimeline(v url.Values) (TimelineParams, error) {
	p := TimelineParams{
		Anchor:  Anchor(v.Get("anchor")),
		Query:   v.Get("query"),
		Project: v.Get("project"),
	}

	var err error
	if p.DepthBefore, err = optionalInt(v, "depth_before"); err != nil {
		return TimelineParams{}, err
	}
	if p.DepthAfter, err = optionalInt(v, "depth_after"); err != nil {
		return TimelineParams{}, err
	}
	return p, nil
}

func optionalInt(v url.Values, key string) (*int, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return &n, nil
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
