/*
 *
 * Copyright 2023 CubeFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# graphmeta: the space metadata master of a distributed graph database

## Data Model

* Space, a named graph namespace with a partition count, a replica factor, a charset and a collation.

* Partition, a slice of a space numbered from 1, served by replica-factor storage hosts.

* Host, a storage server identified by "ip:port", alive while its heartbeats keep arriving.

## Create Space

A space is created under the space namespace write lock: existence check, host snapshot,
property defaults and validation, space id allocation, round-robin placement and a single
atomic write batch holding the name index, the space record and every partition record.

## Architecture

* Catalog, spaces and partitions

* Cluster, host heartbeats and the active host set

* IDGenerator, monotonic space ids

Every module applies its mutations through raft, committed state lives in rocksdb.
The master serves both gRPC and a RESTful API.

## Building Blocks

* etcd raft
* gRPC
* Rocksdb
* Prometheus

*/

package graphmeta
