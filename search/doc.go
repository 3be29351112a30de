// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package search provides ranked retrieval over chunked chat history.
//
// The Searcher embeds a free-text query and scans stored chunk vectors,
// returning chunks above a similarity floor. Results containing every
// query keyword verbatim receive a small score boost, and a search can
// be scoped to one chat or one participant.
package search
