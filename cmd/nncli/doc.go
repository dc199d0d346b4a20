// Package main is the nncli command. It trains, tests and runs feedforward
// networks described by a JSON model file, reading samples from JSON files or
// IDX (MNIST style) data and labels pairs.
//
// Examples:
//
//	nncli -config model.json -mode train -idx-data train-images-idx3-ubyte.gz -idx-labels train-labels-idx1-ubyte.gz
//	nncli -config output/trained_model.json -mode test -samples test.json
//	nncli -config output/trained_model.json -mode predict -input digit.json
package main
