package service

import (
	"coursework_service/pkg/logger"
)

// Core bundles the full operation surface of the workflow engine. A
// transport layer embeds it and maps its calls one to one.
type Core struct {
	Membership *MembershipService
	Visibility *VisibilityService
	Graders    *GraderRegistryService
	Resolver   *GraderResolver
	Lifecycle  *LifecycleService
	Activity   *ActivityService
	Transfer   *TransferService
	Gradebook  *GradebookService
}

func NewCore(
	groupStore GroupStore,
	assignmentStore AssignmentStore,
	personalStore PersonalStore,
	linkStore GraderLinkStore,
	catalog CatalogClient,
	profiles ProfileClient,
	notifier Notifier,
	tx TxRunner,
	log *logger.Logger,
) *Core {
	resolver := NewGraderResolver(assignmentStore, groupStore, linkStore)
	return &Core{
		Membership: NewMembershipService(groupStore),
		Visibility: NewVisibilityService(groupStore, assignmentStore, personalStore),
		Graders:    NewGraderRegistryService(linkStore, groupStore, catalog, tx),
		Resolver:   resolver,
		Lifecycle:  NewLifecycleService(assignmentStore, groupStore, personalStore, profiles, notifier, tx, log),
		Activity:   NewActivityService(personalStore, resolver, tx, log),
		Transfer:   NewTransferService(groupStore, assignmentStore, personalStore, notifier, tx, log),
		Gradebook:  NewGradebookService(groupStore, personalStore, tx),
	}
}
