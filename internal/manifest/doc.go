// Package manifest selects, orders, and composes the day's digest from
// scored content items. The builder filters candidates, ranks them with the
// scoring engine, and derives one section per selected clip from its
// transcript and development context. Manifests move through a strictly
// forward publication lifecycle; the builder itself only ever produces
// drafts.
package manifest
