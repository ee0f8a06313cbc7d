// Package services holds cross-cutting helpers shared by providers and the
// pipeline: the sentinel error taxonomy used for failure classification and
// context annotations consumed by structured logging.
package services
