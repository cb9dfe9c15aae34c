/*
Package ports defines the driven ports (interfaces) of Canopy.

These interfaces decouple the editing core from storage and coordination,
so the same engine runs over memory, files or Redis.

# Key Interfaces

  - DocumentStore: persists and loads whole documents.
  - TemplateLibrary: shares templates between documents.
  - DistributedLocker: coordinates access to one document across replicas.

RunDocumentStoreContract is the reusable suite every DocumentStore adapter runs in its tests.
*/
package ports
