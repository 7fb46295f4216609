package model

import (
	"encoding/json"
	"fmt"
)

// PageInfo is the pagination metadata wrapped around every list response.
// pages == ceil(total/limit) is expected but not enforced; the server is
// trusted.
type PageInfo struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasMore bool `json:"has_more"`
}

// Page wraps one decoded batch of items together with its PageInfo.
type Page[T any] struct {
	Items []T
	Info  PageInfo
}

// ParsePage decodes a paginated envelope {"data": [...], "pagination": {...}}
// and applies decodeItem to each element of data. Missing data or pagination
// keys, or a missing numeric pagination field, fail with a DECODE_ERROR.
func ParsePage[T any](data []byte, decodeItem func(json.RawMessage) (T, error)) (*Page[T], error) {
	var envelope struct {
		Data       *[]json.RawMessage         `json:"data"`
		Pagination map[string]json.RawMessage `json:"pagination"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, NewDecodeError("page: malformed envelope", err)
	}
	if envelope.Data == nil {
		return nil, NewDecodeError("page: missing data key", nil)
	}
	if envelope.Pagination == nil {
		return nil, NewDecodeError("page: missing pagination key", nil)
	}

	info, err := parsePageInfo(envelope.Pagination)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{Items: make([]T, 0, len(*envelope.Data)), Info: info}
	for i, rawItem := range *envelope.Data {
		item, err := decodeItem(rawItem)
		if err != nil {
			return nil, NewDecodeError(fmt.Sprintf("page: item %d", i), err)
		}
		page.Items = append(page.Items, item)
	}

	return page, nil
}

func parsePageInfo(raw map[string]json.RawMessage) (PageInfo, error) {
	var info PageInfo

	for _, key := range []string{"page", "limit", "total", "pages"} {
		if _, ok := raw[key]; !ok {
			return PageInfo{}, NewDecodeError(fmt.Sprintf("page: pagination missing %s", key), nil)
		}
	}

	decode := func(key string, dst any) error {
		if err := json.Unmarshal(raw[key], dst); err != nil {
			return NewDecodeError(fmt.Sprintf("page: pagination field %s", key), err)
		}
		return nil
	}
	if err := decode("page", &info.Page); err != nil {
		return PageInfo{}, err
	}
	if err := decode("limit", &info.Limit); err != nil {
		return PageInfo{}, err
	}
	if err := decode("total", &info.Total); err != nil {
		return PageInfo{}, err
	}
	if err := decode("pages", &info.Pages); err != nil {
		return PageInfo{}, err
	}

	// has_more is tolerated when absent.
	if rawMore, ok := raw["has_more"]; ok {
		if err := json.Unmarshal(rawMore, &info.HasMore); err != nil {
			return PageInfo{}, NewDecodeError("page: pagination field has_more", err)
		}
	}

	return info, nil
}
