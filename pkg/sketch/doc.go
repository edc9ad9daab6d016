// Package sketch defines the in-memory document model for freehand ink.
// A Sketch holds Strokes (timestamped point sequences) and Shapes
// (labelled groupings of strokes and nested shapes). Entities are
// identified by UUID and are mutated in place; the model performs no
// locking and callers own synchronization.
package sketch
