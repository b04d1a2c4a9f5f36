// Package services holds cross-cutting helpers shared by the external service
// clients and the processing pipeline: sentinel error markers used to classify
// failures, and context annotations that feed structured logging.
package services
