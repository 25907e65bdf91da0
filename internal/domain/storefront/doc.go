// Package storefront holds the snapshots of storefront entities that the
// sync engine reconciles, the lifecycle events that carry them, and the
// read ports used to fetch data an event does not carry.
package storefront
