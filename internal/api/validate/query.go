package validate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

const plainContentType = "text/plain; charset=ISO-8859-1"

// queryDateLayouts are the date formats the query API accepts, each with
// and without a trailing " GMT".
var queryDateLayouts = []string{
	"Mon, Jan 02 15:04:05 2006",
	"Mon Jan 02 15:04:05 2006",
	"Mon, 02 Jan 2006 15:04:05",
	"Mon 02 Jan 2006 15:04:05",
}

// QueryParams holds the validated fields of a recognition query.
type QueryParams struct {
	Image             []byte
	MaxNumResults     int
	IncludeTargetData string
}

// Query runs the query API's validation pipeline and returns the parsed
// form fields with defaults applied.
func Query(r Request, now time.Time) (QueryParams, error) {
	var params QueryParams

	if err := checkContentLength(r); err != nil {
		return params, err
	}
	if err := checkQueryDate(r, now); err != nil {
		return params, err
	}
	form, err := parseQueryForm(r)
	if err != nil {
		return params, err
	}
	return checkQueryFields(form)
}

func checkQueryDate(r Request, now time.Time) error {
	if r.Date == "" {
		return &domain.RawError{
			StatusCode:  400,
			ContentType: plainContentType,
			Body:        "Date header required.",
		}
	}
	for _, layout := range queryDateLayouts {
		for _, suffix := range []string{" GMT", ""} {
			parsed, err := time.Parse(layout+suffix, r.Date)
			if err == nil {
				return checkSkew(parsed, now)
			}
		}
	}
	return &domain.RawError{
		StatusCode:  401,
		ContentType: plainContentType,
		Body:        "Malformed date header.",
		Header:      map[string]string{"WWW-Authenticate": "VWS"},
	}
}

// parseQueryForm checks the multipart content type and reads every part
// into memory, keeping the part names for the unknown-parameter check.
func parseQueryForm(r Request) (map[string][]byte, error) {
	mediaType, mediaParams, err := mime.ParseMediaType(r.ContentType)
	if err != nil || mediaType != "multipart/form-data" {
		return nil, &domain.RawError{StatusCode: 415}
	}
	boundary := mediaParams["boundary"]
	if boundary == "" || !bytes.Contains(r.Body, []byte("--"+boundary)) {
		return nil, &domain.RawError{StatusCode: 415}
	}

	form := make(map[string][]byte)
	reader := multipart.NewReader(bytes.NewReader(r.Body), boundary)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return nil, domain.ErrFail.WithCause(err)
		}
		value, err := io.ReadAll(part)
		if err != nil {
			return nil, domain.ErrFail.WithCause(err)
		}
		form[part.FormName()] = value
	}
}

func checkQueryFields(form map[string][]byte) (QueryParams, error) {
	params := QueryParams{MaxNumResults: 1, IncludeTargetData: "top"}

	for name := range form {
		switch name {
		case "image", "max_num_results", "include_target_data":
		default:
			return params, &domain.RawError{
				StatusCode:  400,
				ContentType: plainContentType,
				Body:        "Unknown parameters in the request.",
			}
		}
	}

	if raw, ok := form["max_num_results"]; ok {
		n, err := strconv.Atoi(string(raw))
		if err != nil || n < 1 || n > 50 {
			return params, &domain.RawError{
				StatusCode:  400,
				ContentType: plainContentType,
				Body: fmt.Sprintf("Invalid value '%s' in form data part 'max_result'. "+
					"Expecting integer value in range from 1 to 50 (inclusive).", raw),
			}
		}
		params.MaxNumResults = n
	}

	if raw, ok := form["include_target_data"]; ok {
		value := strings.ToLower(string(raw))
		switch value {
		case "top", "all", "none":
			params.IncludeTargetData = value
		default:
			return params, &domain.RawError{
				StatusCode:  400,
				ContentType: "application/json",
				Body: fmt.Sprintf("Invalid value '%s' in form data part 'include_target_data'. "+
					"Expecting one of the (unquoted) string values 'all', 'none' or 'top'.", raw),
			}
		}
	}

	image, ok := form["image"]
	if !ok {
		return params, &domain.RawError{
			StatusCode:  400,
			ContentType: plainContentType,
			Body:        "No image.",
		}
	}
	if err := checkQueryImage(image); err != nil {
		return params, err
	}
	params.Image = image
	return params, nil
}
