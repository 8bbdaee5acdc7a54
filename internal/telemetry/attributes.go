// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across packages.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	VideoIDKey   = "vod.video_id"
	EntryIDKey   = "vod.entry_id"
	CategoryKey  = "vod.category"
	PageKey      = "vod.page"
	OperationKey = "vod.operation"

	SessionIDKey    = "session.id"
	SessionEpochKey = "session.epoch"
	SessionStateKey = "session.state"

	PlayerVariantKey = "player.variant"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// VideoAttributes describes the video and entry a span works on. Zero ids are omitted.
func VideoAttributes(videoID, entryID int64) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if videoID != 0 {
		attrs = append(attrs, attribute.Int64(VideoIDKey, videoID))
	}
	if entryID != 0 {
		attrs = append(attrs, attribute.Int64(EntryIDKey, entryID))
	}
	return attrs
}

// SessionAttributes describes a playback session.
func SessionAttributes(sessionID string, epoch uint64, state string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SessionIDKey, sessionID),
		attribute.Int64(SessionEpochKey, int64(epoch)),
		attribute.String(SessionStateKey, state),
	}
}

// ErrorAttributes marks a span as failed with a classified error type.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
