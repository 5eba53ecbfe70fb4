package playstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"playreviews/pkg/models"
	"playreviews/pkg/retrieval"
)

const (
	// BatchExecutePath is the RPC endpoint that serves review pages
	BatchExecutePath = "/_/PlayStoreUi/data/batchexecute"

	// reviewsRPC is the batchexecute method id for listing reviews
	reviewsRPC = "UsvDTd"
)

// xssiPrefix guards every batchexecute response
var xssiPrefix = []byte(")]}'")

// encodeReviewsRequest builds the f.req form value for one page
func encodeReviewsRequest(req retrieval.PageRequest) (string, error) {
	var token interface{}
	if req.Token != "" {
		token = req.Token
	}

	inner, err := json.Marshal([]interface{}{
		nil,
		nil,
		[]interface{}{2, int(req.Sort), []interface{}{req.Count, nil, token}, nil, []interface{}{}},
		[]interface{}{req.AppID, 7},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode reviews request: %w", err)
	}

	outer, err := json.Marshal([]interface{}{
		[]interface{}{
			[]interface{}{reviewsRPC, string(inner), nil, "generic"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode batch envelope: %w", err)
	}

	return string(outer), nil
}

// decodeReviewsResponse extracts reviews and the continuation token
func decodeReviewsResponse(body []byte) (retrieval.Page, error) {
	body = bytes.TrimSpace(body)
	body = bytes.TrimPrefix(body, xssiPrefix)

	var envelope []interface{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return retrieval.Page{}, fmt.Errorf("malformed batch envelope: %w", err)
	}

	payload, ok := at(envelope, 0, 2).(string)
	if !ok {
		// null payload: the app exists but has nothing more to show
		return retrieval.Page{}, nil
	}

	var data []interface{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return retrieval.Page{}, fmt.Errorf("malformed reviews payload: %w", err)
	}

	var page retrieval.Page
	if items, ok := at(data, 0).([]interface{}); ok {
		page.Reviews = make([]models.RawReview, 0, len(items))
		for _, item := range items {
			if r, ok := decodeReview(item); ok {
				page.Reviews = append(page.Reviews, r)
			}
		}
	}
	page.NextToken = continuationToken(data)

	return page, nil
}

// continuationToken is the last element of the second to last entry
func continuationToken(data []interface{}) string {
	if len(data) < 2 {
		return ""
	}
	tail, ok := data[len(data)-2].([]interface{})
	if !ok || len(tail) == 0 {
		return ""
	}
	token, _ := tail[len(tail)-1].(string)
	return token
}

func decodeReview(item interface{}) (models.RawReview, bool) {
	id, ok := at(item, 0).(string)
	if !ok || id == "" {
		return models.RawReview{}, false
	}

	r := models.RawReview{
		ID:         id,
		UserName:   str(at(item, 1, 0)),
		Rating:     num(at(item, 2)),
		Content:    str(at(item, 4)),
		ThumbsUp:   num(at(item, 6)),
		AppVersion: str(at(item, 10)),
	}
	if secs, ok := at(item, 5, 0).(float64); ok {
		r.SubmittedAt = time.Unix(int64(secs), 0).UTC()
	}

	return r, true
}

// at walks nested JSON arrays, returning nil when any index is missing
func at(v interface{}, path ...int) interface{} {
	for _, i := range path {
		arr, ok := v.([]interface{})
		if !ok || i < 0 || i >= len(arr) {
			return nil
		}
		v = arr[i]
	}
	return v
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func num(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}
