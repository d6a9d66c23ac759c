// Package domain defines the session data model and the collaborator contracts
// shared across the app. It holds plain types (wire and persisted state) and
// interfaces only; concrete behaviour lives in the service and store packages.
package domain
