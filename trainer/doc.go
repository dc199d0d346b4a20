// Package trainer drives one command line run: it loads the model config and
// the samples, builds the engine, and trains, tests or predicts, writing the
// results next to the inputs.
package trainer
