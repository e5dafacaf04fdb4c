// Package catalog holds the known fragment layouts.
//
// Each layout is available twice: as a schema run by the generic decoder in
// package fragment, and as a hand-written typed decoder built on the
// field.Read helpers. Both produce the same values and the same errors for
// every payload.
package catalog
