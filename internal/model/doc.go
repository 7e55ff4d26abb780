// Package model runs card detection through an external inference service.
//
// A RemoteDetector implements layout.Detector: it encodes the photo, posts
// it to the service and relabels the returned class ids with the model's
// class map. Model metadata is loaded through a Cache owned by the caller,
// so each model id is fetched once per process no matter how many
// detectors share it.
package model
