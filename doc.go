// Package vumock is an in-memory behavioral double of the Vuforia Web
// Services API, covering the target management API and the cloud
// recognition query API.
//
// A Mock serves the same routes, authentication scheme and error surface
// as the hosted service: requests are signed with HMAC-SHA1 over the
// method, body digest, content type, date and path, targets walk through
// the processing/success/failed lifecycle, and recognition answers with
// exact-image matching. No computer vision runs and nothing touches the
// network unless Listen is called.
//
//	m := vumock.New(vumock.WithProcessingDelay(10 * time.Millisecond))
//	db := m.AddDatabase(vumock.Database{})
//	srv := httptest.NewServer(m.Handler())
//	defer srv.Close()
//
// Point a VWS client at srv.URL with db's credentials and exercise it as
// if it were talking to the real service.
package vumock
