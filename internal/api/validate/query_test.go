package validate

import (
	"bytes"
	"mime/multipart"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

const queryTestDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

func multipartBody(t *testing.T, parts map[string][]byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range parts {
		field, err := w.CreateFormField(name)
		require.NoError(t, err)
		_, err = field.Write(value)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func queryRequest(t *testing.T, parts map[string][]byte) Request {
	t.Helper()
	body, contentType := multipartBody(t, parts)
	return Request{
		Method:        "POST",
		Path:          "/query",
		Body:          body,
		ContentType:   contentType,
		Date:          testNow.Format(queryTestDateLayout),
		ContentLength: strconv.Itoa(len(body)),
	}
}

func TestQueryDefaults(t *testing.T) {
	image := pngRGB(t, 4, 4)
	params, err := Query(queryRequest(t, map[string][]byte{"image": image}), testNow)
	require.NoError(t, err)
	assert.Equal(t, image, params.Image)
	assert.Equal(t, 1, params.MaxNumResults)
	assert.Equal(t, "top", params.IncludeTargetData)
}

func TestQueryDateFormats(t *testing.T) {
	accepted := []string{
		testNow.Format("Mon, Jan 02 15:04:05 2006"),
		testNow.Format("Mon Jan 02 15:04:05 2006 GMT"),
		testNow.Format("Mon, 02 Jan 2006 15:04:05"),
		testNow.Format("Mon 02 Jan 2006 15:04:05 GMT"),
	}
	for _, date := range accepted {
		req := queryRequest(t, map[string][]byte{"image": pngRGB(t, 4, 4)})
		req.Date = date
		_, err := Query(req, testNow)
		assert.NoError(t, err, "date %q", date)
	}
}

func TestQueryDateErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		req := queryRequest(t, map[string][]byte{"image": pngRGB(t, 4, 4)})
		req.Date = ""
		_, err := Query(req, testNow)
		var raw *domain.RawError
		require.ErrorAs(t, err, &raw)
		assert.Equal(t, 400, raw.StatusCode)
		assert.Equal(t, "Date header required.", raw.Body)
	})

	t.Run("malformed", func(t *testing.T) {
		req := queryRequest(t, map[string][]byte{"image": pngRGB(t, 4, 4)})
		req.Date = "2023-01-01T12:00:00Z"
		_, err := Query(req, testNow)
		var raw *domain.RawError
		require.ErrorAs(t, err, &raw)
		assert.Equal(t, 401, raw.StatusCode)
		assert.Equal(t, "Malformed date header.", raw.Body)
		assert.Equal(t, "VWS", raw.Header["WWW-Authenticate"])
	})

	t.Run("skewed", func(t *testing.T) {
		req := queryRequest(t, map[string][]byte{"image": pngRGB(t, 4, 4)})
		req.Date = testNow.Add(10 * time.Minute).Format(queryTestDateLayout)
		_, err := Query(req, testNow)
		assert.ErrorIs(t, err, domain.ErrRequestTimeTooSkewed)
	})
}

func TestQueryContentType(t *testing.T) {
	req := queryRequest(t, map[string][]byte{"image": pngRGB(t, 4, 4)})

	t.Run("not multipart", func(t *testing.T) {
		bad := req
		bad.ContentType = "application/json"
		_, err := Query(bad, testNow)
		var raw *domain.RawError
		require.ErrorAs(t, err, &raw)
		assert.Equal(t, 415, raw.StatusCode)
	})

	t.Run("boundary not in body", func(t *testing.T) {
		bad := req
		bad.ContentType = "multipart/form-data; boundary=elsewhere"
		_, err := Query(bad, testNow)
		var raw *domain.RawError
		require.ErrorAs(t, err, &raw)
		assert.Equal(t, 415, raw.StatusCode)
	})
}

func TestQueryUnknownField(t *testing.T) {
	req := queryRequest(t, map[string][]byte{
		"image":    pngRGB(t, 4, 4),
		"surprise": []byte("x"),
	})
	_, err := Query(req, testNow)
	var raw *domain.RawError
	require.ErrorAs(t, err, &raw)
	assert.Equal(t, 400, raw.StatusCode)
	assert.Equal(t, "Unknown parameters in the request.", raw.Body)
}

func TestQueryMaxNumResults(t *testing.T) {
	run := func(t *testing.T, value string) (QueryParams, error) {
		return Query(queryRequest(t, map[string][]byte{
			"image":           pngRGB(t, 4, 4),
			"max_num_results": []byte(value),
		}), testNow)
	}

	params, err := run(t, "50")
	require.NoError(t, err)
	assert.Equal(t, 50, params.MaxNumResults)

	for _, bad := range []string{"0", "51", "1.5", "many"} {
		_, err := run(t, bad)
		var raw *domain.RawError
		require.ErrorAs(t, err, &raw, "value %q", bad)
		assert.Equal(t, 400, raw.StatusCode)
		assert.Contains(t, raw.Body, "max_result")
		assert.Contains(t, raw.Body, bad)
	}
}

func TestQueryIncludeTargetData(t *testing.T) {
	run := func(t *testing.T, value string) (QueryParams, error) {
		return Query(queryRequest(t, map[string][]byte{
			"image":               pngRGB(t, 4, 4),
			"include_target_data": []byte(value),
		}), testNow)
	}

	for _, good := range []string{"top", "all", "none", "TOP"} {
		params, err := run(t, good)
		require.NoError(t, err, "value %q", good)
		assert.NotEmpty(t, params.IncludeTargetData)
	}

	_, err := run(t, "some")
	var raw *domain.RawError
	require.ErrorAs(t, err, &raw)
	assert.Equal(t, 400, raw.StatusCode)
	assert.Contains(t, raw.Body, "include_target_data")
}

func TestQueryImageField(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Query(queryRequest(t, map[string][]byte{}), testNow)
		var raw *domain.RawError
		require.ErrorAs(t, err, &raw)
		assert.Equal(t, 400, raw.StatusCode)
		assert.Equal(t, "No image.", raw.Body)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := Query(queryRequest(t, map[string][]byte{"image": []byte("text")}), testNow)
		assert.ErrorIs(t, err, domain.ErrBadImage)
	})
}
