package validate

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

// managementDateLayout is the only date format the management API accepts.
const managementDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// maxClockSkew bounds how far a request's Date header may drift from the
// engine clock in either direction.
const maxClockSkew = 5 * time.Minute

const maxMetadataBytes = 1024*1024 - 1

// oopsHTML reproduces the HTML error page the real service serves when a
// target name contains characters outside the basic multilingual plane.
const oopsHTML = `<html><head><title>Error</title></head>` +
	`<body><h1>Oops, an error occurred</h1>` +
	`<p>This exception has been logged with id <code>0000000000</code>.</p>` +
	`</body></html>`

// Keys describes the JSON body an endpoint accepts.
type Keys struct {
	Mandatory []string
	Optional  []string
	// NoBody marks endpoints that must not receive a request body.
	NoBody bool
}

// Management runs the management API's validation pipeline in its fixed
// order: content length, date, content type, JSON shape, then the
// field-specific rules. The first failing check wins. On success the
// parsed JSON body is returned (nil for bodyless endpoints).
func Management(r Request, now time.Time, keys Keys) (map[string]any, error) {
	if err := checkContentLength(r); err != nil {
		return nil, err
	}
	if err := checkManagementDate(r, now); err != nil {
		return nil, err
	}
	if err := checkManagementContentType(r); err != nil {
		return nil, err
	}

	if keys.NoBody {
		if len(r.Body) > 0 {
			// The real service drops the content type and sends nothing back.
			return nil, &domain.RawError{StatusCode: 400}
		}
		return nil, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(r.Body, &fields); err != nil {
		return nil, domain.ErrFail.WithCause(err)
	}
	if err := checkManagementFields(fields, r); err != nil {
		return nil, err
	}
	if err := checkKeys(fields, keys); err != nil {
		return nil, err
	}
	return fields, nil
}

func checkContentLength(r Request) error {
	if r.ContentLength == "" {
		if len(r.Body) > 0 {
			return domain.ErrFail
		}
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(r.ContentLength))
	if err != nil {
		return &domain.RawError{
			StatusCode: 400,
			Header:     map[string]string{"Connection": "Close"},
		}
	}
	switch {
	case n > len(r.Body):
		// The service waits for the rest of the body and times out.
		return &domain.RawError{
			StatusCode: 504,
			Header:     map[string]string{"Connection": "keep-alive"},
		}
	case n < len(r.Body):
		return domain.ErrFail
	}
	return nil
}

func checkManagementDate(r Request, now time.Time) error {
	if r.Date == "" {
		return domain.ErrFail
	}
	parsed, err := time.Parse(managementDateLayout, r.Date)
	if err != nil {
		return domain.ErrFail.WithCause(err)
	}
	return checkSkew(parsed, now)
}

func checkSkew(parsed, now time.Time) error {
	diff := now.Sub(parsed)
	if diff < 0 {
		diff = -diff
	}
	if diff >= maxClockSkew {
		return domain.ErrRequestTimeTooSkewed
	}
	return nil
}

func checkManagementContentType(r Request) error {
	if r.Method != "POST" && r.Method != "PUT" {
		return nil
	}
	if r.ContentType == "" {
		return domain.ErrAuthenticationFailure
	}
	mediaType, _, _ := strings.Cut(r.ContentType, ";")
	if strings.TrimSpace(mediaType) != "application/json" {
		return &domain.Error{ResultCode: domain.ResultFail, StatusCode: 415}
	}
	return nil
}

// checkManagementFields applies the per-field rules in the order the real
// service reports them. A field that is absent is never an error here;
// missing mandatory fields are caught by checkKeys.
func checkManagementFields(fields map[string]any, r Request) error {
	if err := checkMetadataField(fields); err != nil {
		return err
	}
	if err := checkActiveFlagField(fields); err != nil {
		return err
	}
	if err := checkImageField(fields); err != nil {
		return err
	}
	if err := checkNameField(fields, r); err != nil {
		return err
	}
	if err := checkWidthField(fields); err != nil {
		return err
	}
	return nil
}

func checkMetadataField(fields map[string]any) error {
	raw, ok := fields["application_metadata"]
	if !ok || raw == nil {
		return nil
	}
	metadata, ok := raw.(string)
	if !ok {
		return domain.ErrFail
	}
	decoded, err := DecodeBase64(metadata)
	if err != nil {
		return domain.ErrFailUnprocessable.WithCause(err)
	}
	if len(decoded) > maxMetadataBytes {
		return domain.ErrMetadataTooLarge
	}
	return nil
}

func checkActiveFlagField(fields map[string]any) error {
	raw, ok := fields["active_flag"]
	if !ok || raw == nil {
		return nil
	}
	if _, ok := raw.(bool); !ok {
		return domain.ErrFail
	}
	return nil
}

func checkImageField(fields map[string]any) error {
	raw, ok := fields["image"]
	if !ok {
		return nil
	}
	encoded, ok := raw.(string)
	if !ok {
		return domain.ErrFail
	}
	decoded, err := DecodeBase64(encoded)
	if err != nil {
		return domain.ErrFailUnprocessable.WithCause(err)
	}
	return checkTargetImage(decoded)
}

func checkNameField(fields map[string]any, r Request) error {
	raw, ok := fields["name"]
	if !ok {
		return nil
	}
	name, ok := raw.(string)
	if !ok {
		return domain.ErrFail
	}
	if name == "" || len([]rune(name)) > 64 {
		return domain.ErrFail
	}
	for _, char := range name {
		if char > 0xFFFF {
			// Characters outside the basic multilingual plane crash the
			// real create endpoint; updates answer with a name conflict.
			if r.Method == "POST" {
				return &domain.RawError{
					StatusCode:  500,
					ContentType: "text/html; charset=UTF-8",
					Body:        oopsHTML,
				}
			}
			return domain.ErrTargetNameExist
		}
	}
	return nil
}

func checkWidthField(fields map[string]any) error {
	raw, ok := fields["width"]
	if !ok {
		return nil
	}
	width, ok := raw.(float64)
	if !ok || width <= 0 {
		return domain.ErrFail
	}
	return nil
}

func checkKeys(fields map[string]any, keys Keys) error {
	allowed := make(map[string]bool, len(keys.Mandatory)+len(keys.Optional))
	for _, k := range keys.Mandatory {
		allowed[k] = true
	}
	for _, k := range keys.Optional {
		allowed[k] = true
	}
	for k := range fields {
		if !allowed[k] {
			return domain.ErrFail
		}
	}
	for _, k := range keys.Mandatory {
		if _, ok := fields[k]; !ok {
			return domain.ErrFail
		}
	}
	return nil
}
