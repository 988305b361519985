// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter selects firehose events by account and keyword.
//
// Filters are defined in YAML:
//
//	filters:
//	  - name: bluesky team
//	    subscribes:
//	      dids:
//	        - did:plc:yk4dd2qkboz2yv6tpubpc6co
//	      handles:
//	        - jay.bsky.team
//	    keywords:
//	      includes:
//	        - bluesky
//	      excludes:
//	        - twitter
//
// A commit from a subscribed account passes unless one of its posts
// contains an excluded keyword. A commit from anyone else passes only
// if one of its posts contains an included keyword. Handle and
// identity events pass for subscribed accounts. Every other event
// passes.
//
// Subscriptions match on DID. [Filters.Init] resolves the listed
// handles once and merges the results into the DID list.
package filter
