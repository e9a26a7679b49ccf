// Package dial implements the DIAL application lifecycle requests an OCast
// receiver exposes under its application URL: info (GET), start (POST,
// 201 Created) and stop (DELETE on the run link).
package dial
