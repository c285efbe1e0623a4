// Package classify tags raw feed frames by structural field presence
// and decodes them into model types.
//
// The feed has no envelope type field. Classification is an ordered
// predicate chain over the top-level keys of each frame; the order
// resolves shapes that would otherwise overlap (see Classify).
package classify
